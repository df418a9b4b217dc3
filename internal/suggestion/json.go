package suggestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type jsonSuggestion struct {
	Value       jsonText `json:"tc:value"`
	Description jsonText `json:"tc:description"`
}

// jsonText is a string field that also accepts numbers and booleans, keeping
// their JSON text, and reads null as empty.
type jsonText string

func (t *jsonText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return errors.New("empty JSON value")
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*t = jsonText(str)
	case data[0] == '{', data[0] == '[':
		return fmt.Errorf("expected a string, number or boolean, got %s", data[:1])
	default:
		*t = jsonText(data)
	}
	return nil
}

type jsonDocument struct {
	Suggestion jsonList `json:"tc:suggestion"`
}

// jsonList accepts either an array of suggestions or a lone object, which is
// how single-element documents are commonly serialized without array wrappers.
type jsonList []jsonSuggestion

func (l *jsonList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '{':
		var single jsonSuggestion
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = jsonList{single}
		return nil
	default:
		var list []jsonSuggestion
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
}

// DecodeJSON reads a canonical JSON document.
func DecodeJSON(r io.Reader) (*Suggestions, error) {
	out := &Suggestions{}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions JSON: %w", err)
	}
	return out, nil
}

// UnmarshalJSON reads the canonical JSON form. A document without a
// suggestion key is empty.
func (s *Suggestions) UnmarshalJSON(data []byte) error {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	s.Suggestion = make([]Suggestion, len(doc.Suggestion))
	for i, sgn := range doc.Suggestion {
		s.Suggestion[i] = Suggestion{Value: string(sgn.Value), Description: string(sgn.Description)}
	}
	return nil
}

// MarshalJSON writes the canonical JSON form. Empty documents are written with
// an empty array rather than null.
func (s *Suggestions) MarshalJSON() ([]byte, error) {
	doc := jsonDocument{Suggestion: make(jsonList, 0, s.Len())}
	if s != nil {
		for _, sgn := range s.Suggestion {
			doc.Suggestion = append(doc.Suggestion, jsonSuggestion{
				Value:       jsonText(sgn.Value),
				Description: jsonText(sgn.Description),
			})
		}
	}
	return json.Marshal(doc)
}

// EncodeJSON writes the canonical JSON form to w.
func EncodeJSON(w io.Writer, s *Suggestions) error {
	if s == nil {
		s = &Suggestions{}
	}
	if err := json.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode suggestions JSON: %w", err)
	}
	return nil
}
