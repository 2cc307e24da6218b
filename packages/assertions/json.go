package assertions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/equivspec/packages/document"
)

// JSON asserts on parts of a JSON body.
type JSON struct {
	t    TestingT
	body []byte
	err  error
}

// ThatJSON starts an assertion on a JSON body given as []byte, string or
// json.RawMessage. Any other value is encoded first.
func ThatJSON(t TestingT, body any) *JSON {
	j := &JSON{t: t}
	switch b := body.(type) {
	case []byte:
		j.body = b
	case json.RawMessage:
		j.body = b
	case string:
		j.body = []byte(b)
	default:
		j.body, j.err = json.Marshal(body)
	}
	if j.err == nil && !gjson.ValidBytes(j.body) {
		j.err = fmt.Errorf("body is not valid JSON: %.64s", j.body)
	}
	return j
}

// At starts an assertion on the value at path, a gjson path such as
// data.items.0.id or data.items[0].id. A missing value is asserted as nil.
func (j *JSON) At(path string) *Assertion {
	if h, ok := j.t.(tHelper); ok {
		h.Helper()
	}
	name := strings.TrimSpace(path)
	if name == "" {
		name = "body"
	}
	if j.err != nil {
		misuse(j.t, j.err)
		return That(j.t, nil).As(name)
	}
	value, _ := j.lookup(path)
	return That(j.t, value).As(name)
}

// Has asserts that a value exists at path.
func (j *JSON) Has(path string) bool {
	if h, ok := j.t.(tHelper); ok {
		h.Helper()
	}
	if j.err != nil {
		return misuse(j.t, j.err)
	}
	_, ok := j.lookup(path)
	return That(j.t, path).fail(!ok, "Expected the body to have a value at {0}, but it does not.", path)
}

// HasNot asserts that nothing exists at path.
func (j *JSON) HasNot(path string) bool {
	if h, ok := j.t.(tHelper); ok {
		h.Helper()
	}
	if j.err != nil {
		return misuse(j.t, j.err)
	}
	value, ok := j.lookup(path)
	return That(j.t, path).fail(ok, "Expected the body not to have a value at {0}, but found {1}.", path, value)
}

func (j *JSON) lookup(path string) (any, bool) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return gjson.ParseBytes(j.body).Value(), true
	}
	result := gjson.GetBytes(j.body, document.ConvertBracketNotation(path))
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}
