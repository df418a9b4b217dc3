package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bcdh/teicompleter/internal/suggestion"
)

// Mapping names the fields of a custom response document: the dotted path to
// the sequence of entries and, within each entry, the value and description
// fields.
type Mapping struct {
	List        string `yaml:"list"`
	Value       string `yaml:"value"`
	Description string `yaml:"description"`
}

// DefaultMapping matches the compact signature documents served by lexicon
// services, e.g. {"sgns":[{"v":"a","d":"letter a"}]}.
var DefaultMapping = Mapping{List: "sgns", Value: "v", Description: "d"}

// Apply builds the canonical suggestions tree from content. Every entry is
// copied in order, verbatim, so the output has exactly as many suggestions as
// the input has entries. A lone object in place of the sequence counts as one
// entry, which is how XML trees represent single children.
func (m Mapping) Apply(content any) (map[string]any, error) {
	entries, err := m.entries(content)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected an object, got %T", i, entry)
		}
		value, ok, err := scalar(obj, m.Value)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		} else if !ok {
			return nil, fmt.Errorf("entry %d: %w %q", i, ErrMissingField, m.Value)
		}
		description, _, err := scalar(obj, m.Description)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, map[string]any{
			suggestion.ValueKey:       value,
			suggestion.DescriptionKey: description,
		})
	}
	return map[string]any{suggestion.SuggestionKey: out}, nil
}

// Transform satisfies [Transformer].
func (m Mapping) Transform(_ context.Context, content any) (any, error) {
	return m.Apply(content)
}

func (m Mapping) entries(content any) ([]any, error) {
	node := content
	for _, key := range strings.Split(m.List, ".") {
		switch typed := node.(type) {
		case map[string]any:
			next, ok := typed[key]
			if !ok {
				return nil, fmt.Errorf("%w %q", ErrMissingField, m.List)
			}
			node = next
		case string:
			// an empty XML element on the path holds no entries
			if strings.TrimSpace(typed) == "" {
				return []any{}, nil
			}
			return nil, fmt.Errorf("%w %q", ErrMissingField, m.List)
		default:
			return nil, fmt.Errorf("%w %q", ErrMissingField, m.List)
		}
	}
	switch typed := node.(type) {
	case []any:
		return typed, nil
	case map[string]any:
		return []any{typed}, nil
	case nil:
		return []any{}, nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return []any{}, nil
		}
	}
	return nil, fmt.Errorf("field %q: expected a list, got %T", m.List, node)
}

// scalar renders obj[key] as a string. Non-string scalars use their JSON
// text. A missing or null field reports ok=false.
func scalar(obj map[string]any, key string) (string, bool, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	switch typed := raw.(type) {
	case string:
		return typed, true, nil
	case float64, bool, json.Number:
		text, err := json.Marshal(typed)
		if err != nil {
			return "", false, fmt.Errorf("field %q: %w", key, err)
		}
		return string(text), true, nil
	default:
		return "", false, fmt.Errorf("field %q: expected a scalar, got %T", key, raw)
	}
}
