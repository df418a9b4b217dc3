// Package suggestion models the canonical completion suggestions document and
// its JSON and XML wire forms.
package suggestion

import "encoding/xml"

const (
	// Namespace is the XML namespace of the canonical document.
	Namespace = "http://humanistika.org/ns/tei-completer"
	// Prefix is the namespace prefix used for JSON keys.
	Prefix = "tc"
)

// JSON keys of the canonical document.
const (
	SuggestionKey  = Prefix + ":suggestion"
	ValueKey       = Prefix + ":value"
	DescriptionKey = Prefix + ":description"
)

// Suggestion is a single completion value with its human-readable description.
type Suggestion struct {
	Value       string `xml:"value"`
	Description string `xml:"description,omitempty"`
}

// Suggestions is the canonical document handed to a completion client.
type Suggestions struct {
	XMLName    xml.Name     `xml:"suggestions"`
	Suggestion []Suggestion `xml:"suggestion"`
}

// New builds a document from the given entries, preserving their order.
func New(entries ...Suggestion) *Suggestions {
	return &Suggestions{Suggestion: entries}
}

// Len returns the number of suggestions. A nil document is empty.
func (s *Suggestions) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Suggestion)
}

// Values returns the suggestion values in document order.
func (s *Suggestions) Values() []string {
	out := make([]string, 0, s.Len())
	if s == nil {
		return out
	}
	for _, sgn := range s.Suggestion {
		out = append(out, sgn.Value)
	}
	return out
}
