package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string            `json:"name"`
	Items []map[string]any  `json:"items"`
	Extra map[string]string `json:"extra"`
}

func TestDecodeDocument(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		input := `name: core-lab
items:
  - name: r1
    left: 200
extra:
  on: "yes"`

		result, err := DecodeDocument[sample]([]byte(input))
		require.NoError(t, err)
		assert.Equal(t, "core-lab", result.Name)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "r1", result.Items[0]["name"])
		assert.Equal(t, "yes", result.Extra["on"])
	})

	t.Run("json", func(t *testing.T) {
		result, err := DecodeDocument[sample]([]byte(`  {"name": "core-lab", "items": []}`))
		require.NoError(t, err)
		assert.Equal(t, "core-lab", result.Name)
	})

	t.Run("short documents", func(t *testing.T) {
		result, err := DecodeDocument[sample]([]byte("name: a"))
		require.NoError(t, err)
		assert.Equal(t, "a", result.Name)

		result, err = DecodeDocument[sample]([]byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, result.Name)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeDocument[sample]([]byte("  \n"))
		assert.ErrorIs(t, err, ErrEmptyDocument)

		_, err = DecodeDocument[sample]([]byte("# only a comment\n"))
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := DecodeDocument[sample]([]byte("name: [unclosed\nitems: {"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid YAML document")
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := DecodeDocument[sample]([]byte("name: [1, 2]"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid document")
	})
}
