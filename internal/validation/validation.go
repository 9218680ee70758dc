// Package validation checks and normalizes request bodies before they reach
// the store.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	MsgMissingTodo   = "No Todo found"
	MsgInvalidStatus = "Invalid status"
	MsgInvalidText   = "Invalid todo text"
	MsgNoFields      = "No valid fields to update"
	MsgInvalidIDs    = "Invalid ids"
	MsgInvalidBody   = "Invalid JSON body"
)

// Error is returned for malformed or missing input. Msg is safe to show to
// API callers; Cause is only meant for logs.
type Error struct {
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(msg string, cause error) *Error {
	return &Error{Msg: msg, Cause: cause}
}

const idsSchemaJSON = `{
	"type": "array",
	"minItems": 1,
	"items": {"type": "string", "minLength": 1}
}`

var idsSchema = jsonschema.MustCompileString("ids.json", idsSchemaJSON)

// Body is a decoded JSON object keyed by field name. Values stay raw so callers
// can tell an absent field from a null one.
type Body map[string]json.RawMessage

// DecodeBody reads a JSON object. An empty body decodes to an empty Body.
func DecodeBody(r io.Reader) (Body, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(MsgInvalidBody, err)
	}
	body := Body{}
	if len(bytes.TrimSpace(data)) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, newError(MsgInvalidBody, err)
	}
	if body == nil {
		body = Body{}
	}
	return body, nil
}

// CreateText validates the text of a new todo. Absent and falsy values
// (null, false, 0, "") are rejected; anything else is coerced to text.
func CreateText(body Body) (string, error) {
	raw, ok := body["todo"]
	if !ok || isFalsy(raw) {
		return "", newError(MsgMissingTodo, nil)
	}
	text, err := coerceText(raw)
	if err != nil {
		return "", newError(MsgMissingTodo, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", newError(MsgMissingTodo, nil)
	}
	return text, nil
}

// UpdateText validates a replacement text. The result is trimmed and never
// empty.
func UpdateText(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", newError(MsgInvalidText, nil)
	}
	text, err := coerceText(raw)
	if err != nil {
		return "", newError(MsgInvalidText, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", newError(MsgInvalidText, nil)
	}
	return text, nil
}

// Status requires a JSON boolean.
func Status(raw json.RawMessage) (bool, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, newError(MsgInvalidStatus, err)
	}
	b, ok := v.(bool)
	if !ok {
		return false, newError(MsgInvalidStatus, fmt.Errorf("status is %T", v))
	}
	return b, nil
}

// IDs validates the "ids" field of a bulk request: a non-empty array of
// non-empty strings. Duplicates are dropped, first occurrence wins.
func IDs(body Body) ([]string, error) {
	raw, ok := body["ids"]
	if !ok {
		return nil, newError(MsgInvalidIDs, nil)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, newError(MsgInvalidIDs, err)
	}
	if err := idsSchema.Validate(v); err != nil {
		return nil, newError(MsgInvalidIDs, err)
	}

	items := v.([]any)
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := item.(string)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// coerceText returns strings as-is and any other JSON value as its compact
// JSON encoding. The conversion is lossy for objects and arrays.
func coerceText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func isFalsy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case string:
		return x == ""
	}
	return false
}
