package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the hospital API. Detail carries the
// raw "detail" payload, which the backend serves either as a plain string
// (business-rule and permission errors) or as an array of {msg} objects
// (validation errors).
type APIError struct {
	Status int
	Detail json.RawMessage
}

func (e *APIError) Error() string {
	if s, ok := e.DetailString(); ok {
		return fmt.Sprintf("backend returned %d: %s", e.Status, s)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// DetailString returns the detail payload when it is a plain string.
func (e *APIError) DetailString() (string, bool) {
	if len(e.Detail) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err != nil {
		return "", false
	}
	return s, true
}

// DetailMessages returns the msg values when the detail payload is a
// validation-error array. Entries without a msg field are skipped.
func (e *APIError) DetailMessages() ([]string, bool) {
	if len(e.Detail) == 0 {
		return nil, false
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &items); err != nil {
		return nil, false
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg != "" {
			msgs = append(msgs, it.Msg)
		}
	}
	return msgs, true
}

// JoinedMessages joins the validation messages with ", ".
func (e *APIError) JoinedMessages() (string, bool) {
	msgs, ok := e.DetailMessages()
	if !ok || len(msgs) == 0 {
		return "", false
	}
	return strings.Join(msgs, ", "), true
}
