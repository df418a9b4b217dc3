package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/bcdh/teicompleter/internal/suggestion"
)

const (
	attrPrefix = "@"
	textKey    = "#text"
)

// DecodeJSONTree decodes a JSON body into a generic tree.
func DecodeJSONTree(body []byte) (any, error) {
	var tree any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return tree, nil
}

// DecodeXMLTree decodes an XML body into a generic tree keyed by local names:
//   - the document becomes {rootName: root};
//   - an element with attributes or child elements becomes a map, with
//     attributes under "@name" and non-blank text under "#text";
//   - a child name that repeats becomes a list, in document order;
//   - an element mixing non-blank text with child elements, such as
//     <d><i>n.</i> house</d>, keeps its inner markup as text: a string, or
//     "#text" next to its attributes;
//   - any other element becomes its text.
func DecodeXMLTree(body []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("failed to parse XML: no root element")
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			root, _, err := decodeElement(dec, start)
			if err != nil {
				return nil, fmt.Errorf("failed to parse XML: %w", err)
			}
			return map[string]any{start.Name.Local: root}, nil
		}
	}
}

var (
	markupTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	markupAttrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// decodeElement returns the tree for the element opened by start along with
// its inner markup.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, string, error) {
	attrs := map[string]any{}
	for _, attr := range start.Attr {
		if isNamespaceDecl(attr) {
			continue
		}
		attrs[attrPrefix+attr.Name.Local] = attr.Value
	}
	children := map[string]any{}
	var text, markup strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, "", err
		}
		switch typed := tok.(type) {
		case xml.StartElement:
			child, inner, err := decodeElement(dec, typed)
			if err != nil {
				return nil, "", err
			}
			addChild(children, typed.Name.Local, child)
			writeElement(&markup, typed, inner)
		case xml.CharData:
			text.Write(typed)
			_, _ = markupTextEscaper.WriteString(&markup, string(typed))
		case xml.EndElement:
			return buildNode(attrs, children, text.String(), markup.String()), markup.String(), nil
		}
	}
}

func buildNode(attrs, children map[string]any, text, markup string) any {
	trimmed := strings.TrimSpace(text)
	switch {
	case len(children) == 0 && len(attrs) == 0:
		return text
	case len(children) > 0 && trimmed != "":
		if len(attrs) == 0 {
			return strings.TrimSpace(markup)
		}
		attrs[textKey] = strings.TrimSpace(markup)
		return attrs
	case trimmed != "":
		attrs[textKey] = trimmed
	}
	for name, child := range children {
		attrs[name] = child
	}
	return attrs
}

// writeElement serializes an element by local name, leaving out namespace
// declarations.
func writeElement(b *strings.Builder, start xml.StartElement, inner string) {
	b.WriteString("<" + start.Name.Local)
	for _, attr := range start.Attr {
		if isNamespaceDecl(attr) {
			continue
		}
		b.WriteString(" " + attr.Name.Local + `="`)
		_, _ = markupAttrEscaper.WriteString(b, attr.Value)
		b.WriteByte('"')
	}
	if inner == "" {
		b.WriteString("/>")
		return
	}
	b.WriteString(">" + inner + "</" + start.Name.Local + ">")
}

func isNamespaceDecl(attr xml.Attr) bool {
	return attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns"
}

func addChild(fields map[string]any, name string, child any) {
	existing, ok := fields[name]
	if !ok {
		fields[name] = child
		return
	}
	if list, ok := existing.([]any); ok {
		fields[name] = append(list, child)
		return
	}
	fields[name] = []any{existing, child}
}

// requireObject rejects transformation results that are not JSON objects.
var requireObject TransformerFunc = func(_ context.Context, tree any) (any, error) {
	if _, ok := tree.(map[string]any); !ok {
		return nil, fmt.Errorf("transformation result must be an object, got %T", tree)
	}
	return tree, nil
}

// ToSuggestions converts a transformed tree into the canonical document.
func ToSuggestions(tree any) (*suggestion.Suggestions, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transformation result: %w", err)
	}
	return suggestion.DecodeJSON(bytes.NewReader(data))
}
