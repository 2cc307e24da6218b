package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"order.json", FormatJSON},
		{"order.yaml", FormatYAML},
		{"ORDER.YML", FormatYAML},
		{"order", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOf(tt.path))
		})
	}
}

func TestLoad_JSONAndYAMLNormalizeAlike(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "order.json", `{"id": 7, "tags": ["a", "b"], "paid": true, "note": null}`)
	yamlPath := writeFile(t, dir, "order.yaml", "id: 7\ntags: [a, b]\npaid: true\nnote: null\n")

	fromJSON, err := Load(jsonPath)
	require.NoError(t, err)
	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, float64(7), fromYAML.(map[string]any)["id"])
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read document")

	broken := writeFile(t, dir, "broken.json", `{"id": `)
	_, err = Load(broken)
	assert.ErrorContains(t, err, "failed to parse JSON")
}

func TestParse_YAMLNonStringKeys(t *testing.T) {
	doc, err := Parse([]byte("1: one\n2: two\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "one", "2": "two"}, doc)
}

func TestParse_EmptyJSON(t *testing.T) {
	doc, err := Parse([]byte("  \n"), FormatJSON)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestConvertBracketNotation(t *testing.T) {
	assert.Equal(t, "0.id", ConvertBracketNotation("[0].id"))
	assert.Equal(t, "items.0.tags.1", ConvertBracketNotation("items[0].tags[1]"))
	assert.Equal(t, "data.name", ConvertBracketNotation("data.name"))
}

func TestSelect(t *testing.T) {
	doc, err := Parse([]byte(`{"data": {"items": [{"id": 1}, {"id": 2}]}}`), FormatJSON)
	require.NoError(t, err)

	tests := []struct {
		path   string
		want   any
		exists bool
	}{
		{"", doc, true},
		{"$", doc, true},
		{"data.items[1].id", float64(2), true},
		{"data.items.0", map[string]any{"id": float64(1)}, true},
		{"data.items.#", float64(2), true},
		{"data.missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok, err := Select(doc, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.exists, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePath(t *testing.T) {
	base := t.TempDir()

	got, err := ResolvePath(base, "schemas/order.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "schemas", "order.json"), got)

	_, err = ResolvePath(base, "../outside.json")
	assert.ErrorContains(t, err, "path traversal detected")

	got, err = ResolvePath("", "../outside.json")
	require.NoError(t, err)
	assert.Equal(t, "../outside.json", got)
}

func TestValidateSchema(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "integer"},
			"name": {"type": "string"}
		}
	}`)

	t.Run("valid", func(t *testing.T) {
		doc := map[string]any{"id": float64(1), "name": "Ada"}
		assert.NoError(t, ValidateSchema(doc, schema))
	})

	t.Run("invalid", func(t *testing.T) {
		err := ValidateSchema(map[string]any{"id": "one"}, schema)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Len(t, schemaErr.Violations, 2)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("missing schema", func(t *testing.T) {
		err := ValidateSchema(map[string]any{}, filepath.Join(dir, "nope.json"))
		assert.ErrorContains(t, err, "failed to read schema file")
	})
}
