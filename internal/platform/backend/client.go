// Package backend is the typed client for the remote hospital API. It is the
// single place that knows the wire contract: endpoint paths, the
// parent_department_id request key, and the two possible names of the
// generated secret field.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/medtrack/console/internal/domain/orgunit"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

func New(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "backend").Logger(),
	}
}

// CreationResult is the normalized outcome of provisioning a section admin.
// The backend labels the generated secret either temp_password or password;
// normalization happens here so nothing downstream branches on the wire name.
type CreationResult struct {
	SectionID int64  `json:"section_id"`
	Username  string `json:"username"`
	Secret    string `json:"secret"`
}

type creationResponse struct {
	SectionID    int64  `json:"section_id"`
	Username     string `json:"username"`
	TempPassword string `json:"temp_password"`
	Password     string `json:"password"`
}

func (r creationResponse) normalize() CreationResult {
	secret := r.TempPassword
	if secret == "" {
		secret = r.Password
	}
	return CreationResult{SectionID: r.SectionID, Username: r.Username, Secret: secret}
}

// TestingCredential is one row of the backend's test-credentials listing.
type TestingCredential struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	OrgUnitID    int64  `json:"org_unit_id"`
	OrgUnitName  string `json:"org_unit_name"`
	IsActive     bool   `json:"is_active"`
	TestPassword string `json:"test_password"`
}

// -- Inventory reads --

func (c *Client) UserInventory(ctx context.Context) ([]orgunit.OrgUnit, error) {
	var out struct {
		OrgUnits []orgunit.OrgUnit `json:"org_units"`
	}
	if err := c.get(ctx, "/api/admin/user-inventory", &out); err != nil {
		return nil, err
	}
	return out.OrgUnits, nil
}

func (c *Client) Leaves(ctx context.Context) ([]orgunit.OrgUnit, error) {
	var out struct {
		Leaves []orgunit.OrgUnit `json:"leaves"`
		Count  int               `json:"count"`
	}
	if err := c.get(ctx, "/api/org-units/leaves", &out); err != nil {
		return nil, err
	}
	return out.Leaves, nil
}

func (c *Client) Administrations(ctx context.Context) ([]orgunit.OrgUnit, error) {
	var out struct {
		Administrations []orgunit.OrgUnit `json:"administrations"`
		Count           int               `json:"count"`
	}
	if err := c.get(ctx, "/api/org-units/administrations", &out); err != nil {
		return nil, err
	}
	return out.Administrations, nil
}

func (c *Client) Departments(ctx context.Context) ([]orgunit.OrgUnit, error) {
	var out struct {
		Departments []orgunit.OrgUnit `json:"departments"`
		Count       int               `json:"count"`
	}
	if err := c.get(ctx, "/api/org-units/departments", &out); err != nil {
		return nil, err
	}
	return out.Departments, nil
}

func (c *Client) SectionParents(ctx context.Context) ([]orgunit.OrgUnit, error) {
	var out struct {
		Parents []orgunit.OrgUnit `json:"parents"`
		Count   int               `json:"count"`
	}
	if err := c.get(ctx, "/api/org-units/section-parents", &out); err != nil {
		return nil, err
	}
	return out.Parents, nil
}

// -- Provisioning --

// CreateSectionWithAdmin provisions a section under the given parent unit.
// The request key is always parent_department_id, even when the parent is an
// administration; that is a fixed contract of the backend, not a statement
// about the parent's type.
func (c *Client) CreateSectionWithAdmin(ctx context.Context, sectionName string, parentUnitID int64) (CreationResult, error) {
	body := struct {
		SectionName        string `json:"section_name"`
		ParentDepartmentID int64  `json:"parent_department_id"`
	}{SectionName: sectionName, ParentDepartmentID: parentUnitID}

	var resp creationResponse
	if err := c.post(ctx, "/api/admin/create-section-with-admin", body, &resp); err != nil {
		return CreationResult{}, err
	}
	return resp.normalize(), nil
}

// RecreateSectionAdmin issues a fresh admin credential for an existing
// section. This is the recovery path when a one-time secret was lost.
func (c *Client) RecreateSectionAdmin(ctx context.Context, sectionID int64) (CreationResult, error) {
	var resp creationResponse
	path := fmt.Sprintf("/api/admin/sections/%d/recreate-admin", sectionID)
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return CreationResult{}, err
	}
	resp.SectionID = sectionID
	return resp.normalize(), nil
}

// -- User administration --

func (c *Client) TestingUserCredentials(ctx context.Context) ([]TestingCredential, error) {
	var out struct {
		Users []TestingCredential `json:"users"`
	}
	if err := c.get(ctx, "/api/admin/testing/user-credentials", &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", userID), nil, nil)
}

// -- Transport --

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Detail json.RawMessage `json:"detail"`
		}
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr == nil && json.Unmarshal(raw, &envelope) == nil {
			apiErr.Detail = envelope.Detail
		}
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("backend request failed")
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}
