package suggestion

import (
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// DecodeXML reads a canonical XML document. Elements are matched by local name
// so documents with or without the tei-completer namespace are accepted. A
// non-UTF-8 encoding named in the XML declaration is honoured.
func DecodeXML(r io.Reader) (*Suggestions, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	out := &Suggestions{}
	if err := dec.Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions XML: %w", err)
	}
	if out.Suggestion == nil {
		out.Suggestion = []Suggestion{}
	}
	return out, nil
}

// EncodeXML writes the canonical XML form to w in the tei-completer namespace.
func EncodeXML(w io.Writer, s *Suggestions) error {
	doc := Suggestions{}
	if s != nil {
		doc.Suggestion = s.Suggestion
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	start := xml.StartElement{Name: xml.Name{Space: Namespace, Local: "suggestions"}}
	if err := enc.EncodeElement(doc, start); err != nil {
		return fmt.Errorf("failed to encode suggestions XML: %w", err)
	}
	return enc.Close()
}
