package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) Body {
	t.Helper()
	body, err := DecodeBody(strings.NewReader(s))
	require.NoError(t, err)
	return body
}

func requireValidation(t *testing.T, err error, msg string) {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, msg, verr.Msg)
}

func TestDecodeBody(t *testing.T) {
	body, err := DecodeBody(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, body)

	body, err = DecodeBody(strings.NewReader("null"))
	require.NoError(t, err)
	assert.NotNil(t, body)

	_, err = DecodeBody(strings.NewReader("{not json"))
	requireValidation(t, err, MsgInvalidBody)

	_, err = DecodeBody(strings.NewReader(`[1,2]`))
	requireValidation(t, err, MsgInvalidBody)
}

func TestCreateText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string", body: `{"todo":"buy milk"}`, want: "buy milk"},
		{name: "trimmed", body: `{"todo":"  buy milk  "}`, want: "buy milk"},
		{name: "number", body: `{"todo":42}`, want: "42"},
		{name: "object", body: `{"todo":{"a": 1}}`, want: `{"a":1}`},
		{name: "true", body: `{"todo":true}`, want: "true"},
		{name: "absent", body: `{}`, wantErr: true},
		{name: "null", body: `{"todo":null}`, wantErr: true},
		{name: "empty", body: `{"todo":""}`, wantErr: true},
		{name: "zero", body: `{"todo":0}`, wantErr: true},
		{name: "false", body: `{"todo":false}`, wantErr: true},
		{name: "whitespace", body: `{"todo":"   "}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateText(decode(t, tt.body))
			if tt.wantErr {
				requireValidation(t, err, MsgMissingTodo)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateText(t *testing.T) {
	got, err := UpdateText(json.RawMessage(`" new text "`))
	require.NoError(t, err)
	assert.Equal(t, "new text", got)

	got, err = UpdateText(json.RawMessage(`7`))
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	_, err = UpdateText(json.RawMessage(`"   "`))
	requireValidation(t, err, MsgInvalidText)

	_, err = UpdateText(json.RawMessage(`null`))
	requireValidation(t, err, MsgInvalidText)
}

func TestStatus(t *testing.T) {
	got, err := Status(json.RawMessage(`true`))
	require.NoError(t, err)
	assert.True(t, got)

	for _, raw := range []string{`"true"`, `1`, `null`, `{}`} {
		_, err := Status(json.RawMessage(raw))
		requireValidation(t, err, MsgInvalidStatus)
	}
}

func TestIDs(t *testing.T) {
	ids, err := IDs(decode(t, `{"ids":["a","b","a"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	for _, body := range []string{
		`{}`,
		`{"ids":[]}`,
		`{"ids":"a"}`,
		`{"ids":[1,2]}`,
		`{"ids":[""]}`,
		`{"ids":null}`,
	} {
		_, err := IDs(decode(t, body))
		requireValidation(t, err, MsgInvalidIDs)
	}
}
