package transform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeXMLTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    any
		wantErr string
	}{
		{
			name:  "repeated children become a list",
			input: `<sgns><sgn><v>a</v><d>letter a</d></sgn><sgn><v>b</v><d>letter b</d></sgn></sgns>`,
			want: map[string]any{"sgns": map[string]any{"sgn": []any{
				map[string]any{"v": "a", "d": "letter a"},
				map[string]any{"v": "b", "d": "letter b"},
			}}},
		},
		{
			name:  "single child stays an object",
			input: `<sgns><sgn><v>a</v></sgn></sgns>`,
			want:  map[string]any{"sgns": map[string]any{"sgn": map[string]any{"v": "a"}}},
		},
		{
			name:  "attributes are prefixed",
			input: `<sgns xmlns="urn:x" xmlns:p="urn:p"><sgn v="a" p:d="letter a"/></sgns>`,
			want: map[string]any{"sgns": map[string]any{"sgn": map[string]any{
				"@v": "a",
				"@d": "letter a",
			}}},
		},
		{
			name:  "mixed content keeps trimmed text",
			input: `<w lemma="x"> word </w>`,
			want:  map[string]any{"w": map[string]any{"@lemma": "x", "#text": "word"}},
		},
		{
			name:  "inline markup in text is kept as markup",
			input: `<d><i lang="la">n.</i> salt &amp; <b>pepper</b><br/></d>`,
			want:  map[string]any{"d": `<i lang="la">n.</i> salt &amp; <b>pepper</b><br/>`},
		},
		{
			name:  "inline markup next to attributes",
			input: `<d xml:lang="hr" xmlns:tei="urn:tei">a <tei:hi rend="it">b</tei:hi></d>`,
			want:  map[string]any{"d": map[string]any{"@lang": "hr", "#text": `a <hi rend="it">b</hi>`}},
		},
		{
			name:  "empty root",
			input: `<?xml version="1.0"?><!-- none --><sgns/>`,
			want:  map[string]any{"sgns": ""},
		},
		{
			name:    "no root",
			input:   `<?xml version="1.0"?>`,
			wantErr: "no root element",
		},
		{
			name:    "unclosed",
			input:   `<sgns><sgn>`,
			wantErr: "failed to parse XML",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeXMLTree([]byte(test.input))
			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("DecodeXMLTree() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeXMLTreeFixture(t *testing.T) {
	t.Parallel()

	body, err := os.ReadFile(filepath.Join("testdata", "custom.xml"))
	require.NoError(t, err)
	tree, err := DecodeXMLTree(body)
	require.NoError(t, err)

	mapped, err := Mapping{List: "sgns.sgn", Value: "v", Description: "d"}.Apply(tree)
	require.NoError(t, err)
	got, err := ToSuggestions(mapped)
	require.NoError(t, err)
	assert.Equal(t, []string{"suggestion1", "suggestion2"}, got.Values())
}

func TestDecodeXMLTreeMarkupDescriptions(t *testing.T) {
	t.Parallel()

	tree, err := DecodeXMLTree([]byte(`<sgns>
  <sgn><v>kuća</v><d><i>n.</i> house</d></sgn>
  <sgn><v>pas</v><d>dog</d></sgn>
</sgns>`))
	require.NoError(t, err)

	mapped, err := Mapping{List: "sgns.sgn", Value: "v", Description: "d"}.Apply(tree)
	require.NoError(t, err)
	got, err := ToSuggestions(mapped)
	require.NoError(t, err)
	assert.Equal(t, []string{"kuća", "pas"}, got.Values())
	assert.Equal(t, "<i>n.</i> house", got.Suggestion[0].Description)
	assert.Equal(t, "dog", got.Suggestion[1].Description)
}

func TestDecodeJSONTree(t *testing.T) {
	t.Parallel()

	tree, err := DecodeJSONTree([]byte(`{"sgns":[{"v":"a","d":1}]}`))
	require.NoError(t, err)
	want := map[string]any{"sgns": []any{map[string]any{"v": "a", "d": float64(1)}}}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("DecodeJSONTree() mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodeJSONTree([]byte(`{"sgns":`))
	require.ErrorContains(t, err, "failed to parse JSON")
}

func TestRequireObject(t *testing.T) {
	t.Parallel()

	_, err := requireObject(context.Background(), []any{})
	require.ErrorContains(t, err, "must be an object")

	tree := map[string]any{}
	got, err := requireObject(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, tree, got)
}

func TestChain(t *testing.T) {
	t.Parallel()

	wrap := TransformerFunc(func(_ context.Context, content any) (any, error) {
		return []any{content}, nil
	})
	got, err := Chain(wrap, wrap).Transform(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"x"}}, got)

	_, err = Chain(wrap, requireObject, wrap).Transform(context.Background(), "x")
	require.Error(t, err)
}
