package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medtrack/console/internal/platform/backend"
)

type mockUserAdmin struct {
	users       []backend.TestingCredential
	listErr     error
	deleted     []int64
	deleteCalls int
}

func (m *mockUserAdmin) TestingUserCredentials(_ context.Context) ([]backend.TestingCredential, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.users, nil
}

func (m *mockUserAdmin) DeleteUser(_ context.Context, id int64) error {
	m.deleteCalls++
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestHandler(api *mockProvisioner, users *mockUserAdmin) (*Handler, *echo.Echo) {
	svc := newTestService(api)
	h := NewHandler(svc, users, NewDisclosure(), zerolog.Nop())
	e := echo.New()
	return h, e
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateSection(t *testing.T) {
	api := &mockProvisioner{result: backend.CreationResult{SectionID: 101, Username: "sec_101_admin", Secret: "X7!ab"}}
	h, e := newTestHandler(api, &mockUserAdmin{})

	c, rec := postJSON(e, "/api/sections", `{"section_name":"  Cardiology Annex  ","parent_unit_id":42}`)
	if err := h.CreateSection(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if api.lastName != "Cardiology Annex" {
		t.Errorf("expected trimmed name sent upstream, got %q", api.lastName)
	}

	var resp struct {
		SectionID        int64  `json:"section_id"`
		Username         string `json:"username"`
		CredentialsToken string `json:"credentials_token"`
		Notice           string `json:"notice"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.SectionID != 101 || resp.Username != "sec_101_admin" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.CredentialsToken == "" {
		t.Fatal("expected a credentials token")
	}
	if resp.Notice == "" {
		t.Error("expected the one-time notice")
	}
	if strings.Contains(rec.Body.String(), "X7!ab") {
		t.Error("the secret must not appear in the creation response")
	}

	// Claim the credentials exactly once.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claimRec := httptest.NewRecorder()
	claimCtx := e.NewContext(req, claimRec)
	claimCtx.SetParamNames("token")
	claimCtx.SetParamValues(resp.CredentialsToken)
	if err := h.ClaimCredentials(claimCtx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var claimed struct {
		TempPassword string `json:"temp_password"`
	}
	json.Unmarshal(claimRec.Body.Bytes(), &claimed)
	if claimed.TempPassword != "X7!ab" {
		t.Errorf("expected secret on claim, got %q", claimed.TempPassword)
	}

	// A second claim fails.
	again := httptest.NewRecorder()
	againCtx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), again)
	againCtx.SetParamNames("token")
	againCtx.SetParamValues(resp.CredentialsToken)
	if err := h.ClaimCredentials(againCtx); err == nil {
		t.Error("second claim must fail")
	}
}

func TestHandler_CreateSection_ValidationErrors(t *testing.T) {
	api := &mockProvisioner{}
	h, e := newTestHandler(api, &mockUserAdmin{})

	c, rec := postJSON(e, "/api/sections", `{"section_name":"A"}`)
	if err := h.CreateSection(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if api.calls != 0 {
		t.Error("no upstream call may be made on validation failure")
	}

	var resp struct {
		Errors FieldErrors `json:"errors"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Errors.SectionName != ErrTooShort {
		t.Errorf("expected %q, got %q", ErrTooShort, resp.Errors.SectionName)
	}
	if resp.Errors.Parent != ErrRequired {
		t.Errorf("expected %q, got %q", ErrRequired, resp.Errors.Parent)
	}
}

func TestHandler_CreateSection_UpstreamValidation(t *testing.T) {
	api := &mockProvisioner{err: apiErr(422, `[{"msg":"Section name is required"},{"msg":"Parent unit ID is required"}]`)}
	h, e := newTestHandler(api, &mockUserAdmin{})

	c, rec := postJSON(e, "/api/sections", `{"section_name":"Cardiology Annex","parent_unit_id":42}`)
	if err := h.CreateSection(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Section name is required, Parent unit ID is required" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestHandler_CreateSection_TransportFailure(t *testing.T) {
	api := &mockProvisioner{err: fmt.Errorf("connection refused")}
	h, e := newTestHandler(api, &mockUserAdmin{})

	c, rec := postJSON(e, "/api/sections", `{"section_name":"Cardiology Annex","parent_unit_id":42}`)
	if err := h.CreateSection(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "connection refused" {
		t.Errorf("expected raw transport message, got %q", resp.Message)
	}
}

func TestHandler_RecreateAdmin(t *testing.T) {
	api := &mockProvisioner{result: backend.CreationResult{Username: "sec_9_admin", Secret: "fresh"}}
	h, e := newTestHandler(api, &mockUserAdmin{})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9")

	if err := h.RecreateAdmin(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "fresh") {
		t.Error("the secret must not appear outside the one-time claim")
	}
}

func TestHandler_DeleteUser_GuardsSoftwareAdmin(t *testing.T) {
	users := &mockUserAdmin{users: []backend.TestingCredential{
		{UserID: 5, Username: "root", Role: "SOFTWARE_ADMIN"},
		{UserID: 6, Username: "worker", Role: "complaint_department_worker"},
	}}
	h, e := newTestHandler(&mockProvisioner{}, users)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")

	err := h.DeleteUser(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if users.deleteCalls != 0 {
		t.Error("the delete must never be sent upstream for a software admin")
	}
}

func TestHandler_DeleteUser_ForwardsOthers(t *testing.T) {
	users := &mockUserAdmin{users: []backend.TestingCredential{
		{UserID: 6, Username: "worker", Role: "complaint_department_worker"},
	}}
	h, e := newTestHandler(&mockProvisioner{}, users)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("6")

	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(users.deleted) != 1 || users.deleted[0] != 6 {
		t.Errorf("expected delete forwarded for user 6, got %v", users.deleted)
	}
}

func TestHandler_ListTestingCredentials_Paginates(t *testing.T) {
	var all []backend.TestingCredential
	for i := 1; i <= 25; i++ {
		all = append(all, backend.TestingCredential{UserID: int64(i), Username: fmt.Sprintf("u%d", i)})
	}
	h, e := newTestHandler(&mockProvisioner{}, &mockUserAdmin{users: all})

	req := httptest.NewRequest(http.MethodGet, "/?limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListTestingCredentials(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []backend.TestingCredential `json:"data"`
		Total int                         `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 25 {
		t.Errorf("expected total 25, got %d", resp.Total)
	}
	if len(resp.Data) != 5 {
		t.Errorf("expected 5 rows on the last page, got %d", len(resp.Data))
	}
}

func TestHandler_CreateSection_GateRefusesConcurrentSubmit(t *testing.T) {
	h, e := newTestHandler(&mockProvisioner{result: backend.CreationResult{SectionID: 1}}, &mockUserAdmin{})

	// Hold the anonymous operator's gate as if a submission were in flight.
	gate := h.gateFor("")
	gen, ok := gate.Begin()
	if !ok {
		t.Fatal("setup: begin failed")
	}
	defer gate.Finish(gen)

	c, _ := postJSON(e, "/api/sections", `{"section_name":"Cardiology Annex","parent_unit_id":42}`)
	err := h.CreateSection(c)
	httpErr, isHTTP := err.(*echo.HTTPError)
	if !isHTTP || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409 while a submission is outstanding, got %v", err)
	}
}

func TestHandler_GatePerOperator(t *testing.T) {
	h, _ := newTestHandler(&mockProvisioner{}, &mockUserAdmin{})
	if h.gateFor("a") == h.gateFor("b") {
		t.Error("operators must not share a gate")
	}
	if h.gateFor("a") != h.gateFor("a") {
		t.Error("one operator must keep one gate")
	}
}
