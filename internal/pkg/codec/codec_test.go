package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	FormID string            `json:"form_id"`
	Fields map[string]string `json:"fields,omitempty"`
}

func TestJSON_Name(t *testing.T) {
	assert.Equal(t, "json", JSON{}.Name())
}

func TestJSON_RoundTrip(t *testing.T) {
	c := JSON{}
	raw, err := c.Marshal(&message{FormID: "f1", Fields: map[string]string{"b": "2", "a": "<1>"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"form_id":"f1","fields":{"a":"<1>","b":"2"}}`, string(raw))

	var out message
	require.NoError(t, c.Unmarshal(raw, &out))
	assert.Equal(t, "f1", out.FormID)
	assert.Equal(t, "<1>", out.Fields["a"])
}

func TestUnmarshal_Empty(t *testing.T) {
	out := message{FormID: "keep"}
	require.NoError(t, Unmarshal(nil, &out))
	assert.Equal(t, "keep", out.FormID)
}

func TestUnmarshal_Invalid(t *testing.T) {
	var out message
	assert.Error(t, Unmarshal([]byte(`{"form_id":`), &out))
}
