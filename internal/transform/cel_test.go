package transform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCEL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expr       string
		content    any
		want       any
		compileErr string
		evalErr    string
	}{
		{
			name:    "reshape signatures",
			expr:    `{"tc:suggestion": content.sgns.map(s, {"tc:value": s.v, "tc:description": s.d})}`,
			content: map[string]any{"sgns": []any{map[string]any{"v": "a", "d": "letter a"}}},
			want: map[string]any{"tc:suggestion": []any{
				map[string]any{"tc:value": "a", "tc:description": "letter a"},
			}},
		},
		{
			name:    "string extensions",
			expr:    `{"tc:suggestion": content.sgns.map(s, {"tc:value": s.v.upperAscii(), "tc:description": s.d.trim()})}`,
			content: map[string]any{"sgns": []any{map[string]any{"v": "a", "d": "  letter a "}}},
			want: map[string]any{"tc:suggestion": []any{
				map[string]any{"tc:value": "A", "tc:description": "letter a"},
			}},
		},
		{
			name:       "syntax error",
			expr:       `{"tc:suggestion": content.sgns.map(s, }`,
			compileErr: "failed to compile CEL expression",
		},
		{
			name:       "undeclared variable",
			expr:       `{"tc:suggestion": response.sgns}`,
			compileErr: "failed to compile CEL expression",
		},
		{
			name:    "missing key",
			expr:    `{"tc:suggestion": content.missing}`,
			content: map[string]any{"sgns": []any{}},
			evalErr: "failed to evaluate CEL expression",
		},
		{
			name:    "not a map",
			expr:    `content.sgns`,
			content: map[string]any{"sgns": []any{}},
			evalErr: "CEL expression must return a map",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			transformer, err := CompileCEL(test.expr)
			if test.compileErr != "" {
				require.ErrorContains(t, err, test.compileErr)
				return
			}
			require.NoError(t, err)
			got, err := transformer.Transform(context.Background(), test.content)
			if test.evalErr != "" {
				require.ErrorContains(t, err, test.evalErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestCELFixtures(t *testing.T) {
	t.Parallel()

	for _, fixture := range []struct {
		script, body string
		decode       func([]byte) (any, error)
	}{
		{script: "sgns.cel", body: "custom.json", decode: DecodeJSONTree},
		{script: "sgns_xml.cel", body: "custom.xml", decode: DecodeXMLTree},
	} {
		t.Run(fixture.script, func(t *testing.T) {
			t.Parallel()
			src, err := os.ReadFile(filepath.Join("testdata", fixture.script))
			require.NoError(t, err)
			body, err := os.ReadFile(filepath.Join("testdata", fixture.body))
			require.NoError(t, err)

			transformer, err := CompileCEL(string(src))
			require.NoError(t, err)
			tree, err := fixture.decode(body)
			require.NoError(t, err)
			out, err := transformer.Transform(context.Background(), tree)
			require.NoError(t, err)
			got, err := ToSuggestions(out)
			require.NoError(t, err)
			assert.Equal(t, []string{"suggestion1", "suggestion2"}, got.Values())
			assert.Equal(t, "some-selection:some-dependent", got.Suggestion[1].Description)
		})
	}
}
