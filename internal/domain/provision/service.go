package provision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medtrack/console/internal/domain/orgunit"
	"github.com/medtrack/console/internal/platform/backend"
)

// FallbackMessage is shown when a failure carries no usable detail.
const FallbackMessage = "Section creation failed"

// Provisioner is the slice of the hospital API the workflow needs.
type Provisioner interface {
	CreateSectionWithAdmin(ctx context.Context, sectionName string, parentUnitID int64) (backend.CreationResult, error)
	RecreateSectionAdmin(ctx context.Context, sectionID int64) (backend.CreationResult, error)
}

// ValidationError reports a rejected form. It never reaches the backend.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "section creation request failed validation"
}

type Service struct {
	api    Provisioner
	dir    *orgunit.Directory
	logger zerolog.Logger
}

func NewService(api Provisioner, dir *orgunit.Directory, logger zerolog.Logger) *Service {
	return &Service{api: api, dir: dir, logger: logger.With().Str("component", "provision").Logger()}
}

// CreateSection validates the form, checks the parent against the cached
// inventory and issues the create request. The name sent on the wire is the
// trimmed name the validator saw. No retry and no deduplication happen here;
// the submit gate is the caller's only safeguard against rapid re-submission.
func (s *Service) CreateSection(ctx context.Context, sectionName string, parentUnitID int64) (backend.CreationResult, error) {
	if errs := Validate(sectionName, parentUnitID); !errs.OK() {
		return backend.CreationResult{}, &ValidationError{Fields: errs}
	}

	if s.dir.Loaded() {
		parent, ok := s.dir.Get(parentUnitID)
		if !ok {
			return backend.CreationResult{}, fmt.Errorf("parent unit %d not found", parentUnitID)
		}
		if !parent.Type.CanParentSection() {
			return backend.CreationResult{}, fmt.Errorf("org unit %q is a section and cannot hold sections", parent.Name)
		}
	}

	name := strings.TrimSpace(sectionName)
	result, err := s.api.CreateSectionWithAdmin(ctx, name, parentUnitID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("section_name", name).
			Int64("parent_unit_id", parentUnitID).
			Msg("section creation failed")
		return backend.CreationResult{}, err
	}

	s.logger.Info().
		Int64("section_id", result.SectionID).
		Str("username", result.Username).
		Msg("section provisioned")
	return result, nil
}

// RecreateAdmin issues fresh credentials for an existing section, the
// administrative recovery path when a one-time secret was never copied.
func (s *Service) RecreateAdmin(ctx context.Context, sectionID int64) (backend.CreationResult, error) {
	result, err := s.api.RecreateSectionAdmin(ctx, sectionID)
	if err != nil {
		s.logger.Error().Err(err).Int64("section_id", sectionID).Msg("admin recreation failed")
		return backend.CreationResult{}, err
	}
	s.logger.Info().Int64("section_id", sectionID).Str("username", result.Username).Msg("section admin recreated")
	return result, nil
}

// FailureMessage maps any provisioning failure to the one human-readable
// string shown inline near the form:
//
//   - 422 with a detail array: all msg values joined with ", "
//   - 400/403/404 with a string detail: the string verbatim
//   - malformed or missing detail: a fixed fallback
//   - transport failure (no response at all): the error's own message
func FailureMessage(err error) string {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Status {
	case http.StatusUnprocessableEntity:
		if joined, ok := apiErr.JoinedMessages(); ok {
			return joined
		}
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		if s, ok := apiErr.DetailString(); ok {
			return s
		}
	}
	return FallbackMessage
}
