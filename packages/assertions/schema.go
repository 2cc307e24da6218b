package assertions

import (
	"errors"
	"strings"

	"github.com/abdul-hamid-achik/equivspec/packages/document"
)

// MatchSchema asserts that the subject, encoded as JSON, conforms to the
// JSON schema stored at schemaPath.
func (a *Assertion) MatchSchema(schemaPath string) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	doc, err := document.Normalize(a.subject)
	if err != nil {
		return misuse(a.t, err)
	}

	err = document.ValidateSchema(doc, schemaPath)
	var schemaErr *document.SchemaError
	switch {
	case err == nil:
		return true
	case errors.As(err, &schemaErr):
		return a.failWith("- "+strings.Join(schemaErr.Violations, "\n- "),
			"Expected {context:value} to match schema {0}{reason}, but found {1} violation(s):", schemaPath, len(schemaErr.Violations))
	default:
		return misuse(a.t, err)
	}
}
