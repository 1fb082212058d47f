package backend

import (
	"encoding/json"
	"testing"
)

func TestAPIError_DetailString(t *testing.T) {
	e := &APIError{Status: 400, Detail: json.RawMessage(`"Parent unit is inactive"`)}
	s, ok := e.DetailString()
	if !ok || s != "Parent unit is inactive" {
		t.Errorf("unexpected detail %q (ok=%v)", s, ok)
	}

	e = &APIError{Status: 400, Detail: json.RawMessage(`[{"msg":"x"}]`)}
	if _, ok := e.DetailString(); ok {
		t.Error("array detail is not a string")
	}

	e = &APIError{Status: 500}
	if _, ok := e.DetailString(); ok {
		t.Error("missing detail is not a string")
	}
}

func TestAPIError_DetailMessages(t *testing.T) {
	e := &APIError{Status: 422, Detail: json.RawMessage(`[{"msg":"a","loc":["body"]},{"msg":"b"},{"type":"missing"}]`)}
	msgs, ok := e.DetailMessages()
	if !ok || len(msgs) != 2 || msgs[0] != "a" || msgs[1] != "b" {
		t.Errorf("unexpected messages %v (ok=%v)", msgs, ok)
	}

	e = &APIError{Status: 422, Detail: json.RawMessage(`"plain"`)}
	if _, ok := e.DetailMessages(); ok {
		t.Error("string detail is not a message array")
	}
}

func TestAPIError_Error(t *testing.T) {
	e := &APIError{Status: 403, Detail: json.RawMessage(`"denied"`)}
	if got := e.Error(); got != "backend returned 403: denied" {
		t.Errorf("unexpected error string %q", got)
	}
	e = &APIError{Status: 500}
	if got := e.Error(); got != "backend returned 500" {
		t.Errorf("unexpected error string %q", got)
	}
}
