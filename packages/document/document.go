package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Format identifies how a document is encoded.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}

// FormatOf picks the format from a file extension. Unknown extensions are
// treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses the document at path.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes data and normalizes the result.
func Parse(data []byte, format Format) (any, error) {
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	}
	return Normalize(raw)
}

// Normalize converts v to the JSON data model by encoding it and decoding it
// again. Maps with non-string keys, as YAML allows, get their keys formatted.
func Normalize(v any) (any, error) {
	data, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	return out, nil
}

func stringKeys(v any) any {
	switch n := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[k] = stringKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = stringKeys(item)
		}
		return out
	default:
		return v
	}
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// ConvertBracketNotation turns items[0].tags[1] into items.0.tags.1.
func ConvertBracketNotation(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

// Select returns the subtree of doc at path. An empty path selects the whole
// document. The boolean reports whether the path exists.
func Select(doc any, path string) (any, bool, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return doc, true, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode document: %w", err)
	}
	result := gjson.GetBytes(data, ConvertBracketNotation(path))
	if !result.Exists() {
		return nil, false, nil
	}
	return result.Value(), true, nil
}

// ResolvePath resolves path against baseDir and rejects results that escape
// it. An empty baseDir allows any path.
func ResolvePath(baseDir, path string) (string, error) {
	if baseDir == "" {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return "", fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}
	return cleanPath, nil
}
