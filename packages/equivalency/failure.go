package equivalency

import (
	"strings"
)

// Failure is one difference found between the subject and the expectation.
type Failure struct {
	// Path is the dotted member path of the node, empty for the root.
	Path string
	// Message is a complete sentence describing the difference.
	Message string
}

func (f Failure) String() string {
	return f.Message
}

// Messages returns the message of every failure in order.
func Messages(failures []Failure) []string {
	messages := make([]string, len(failures))
	for i, f := range failures {
		messages[i] = f.Message
	}
	return messages
}

// Join renders failures as a bullet list, one per line.
func Join(failures []Failure) string {
	var b strings.Builder
	for i, f := range failures {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(f.Message)
	}
	return b.String()
}
