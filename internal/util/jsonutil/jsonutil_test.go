package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONLabeledFence(t *testing.T) {
	text := "Here is the comparison you asked for:\n```json\n{\"selected\": \"p2\"}\n```\nLet me know if you need more."
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"selected":"p2"}`, string(raw))
}

func TestExtractJSONLabeledFenceCaseInsensitive(t *testing.T) {
	raw, err := ExtractJSON("```JSON\n{\"a\":1}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestExtractJSONBareFence(t *testing.T) {
	raw, err := ExtractJSON("```\n{\"a\": [1, 2]}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[1,2]}`, string(raw))
}

func TestExtractJSONCleanPayloadIsIdempotent(t *testing.T) {
	clean := `{"selected_phone":{"phone_id":"p1"},"summary":"ok"}`
	raw, err := ExtractJSON(clean)
	require.NoError(t, err)
	assert.Equal(t, clean, string(raw))

	again, err := ExtractJSON(string(raw))
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(again))
}

func TestExtractJSONRejectsProse(t *testing.T) {
	_, err := ExtractJSON("I could not produce a comparison, sorry.")
	require.Error(t, err)
}

func TestExtractJSONRejectsFencedProse(t *testing.T) {
	_, err := ExtractJSON("```json\nnot json at all\n```")
	require.Error(t, err)
}

func TestExtractJSONRejectsEmpty(t *testing.T) {
	_, err := ExtractJSON("   \n ")
	require.ErrorIs(t, err, ErrEmptyPayload)

	_, err = ExtractJSON("```json\n\n```")
	require.ErrorIs(t, err, ErrEmptyPayload)
}

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"analysis": "<120Hz & AMOLED>"})
	require.NoError(t, err)
	assert.Equal(t, `{"analysis":"<120Hz & AMOLED>"}`, string(out))
}
