package content

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// nbspPattern matches both the HTML entity &nbsp; (case insensitive) and
	// the actual unicode non-breaking space character (U+00A0).
	nbspPattern = regexp.MustCompile("(?i)&nbsp;|\xc2\xa0")

	// langAttr matches BCP 47 language tags as used by TEI xml:lang values.
	langAttr = regexp.MustCompile(`^[A-Za-z]{2,8}(-[A-Za-z0-9]{1,8})*$`)
)

// NormalizeNBSP replaces non-breaking space entities and characters with
// regular spaces. Operates on raw input before HTML parsing.
func NormalizeNBSP() TransformerFunc {
	return func(input []byte) ([]byte, error) {
		return nbspPattern.ReplaceAll(input, []byte{' '}), nil
	}
}

// SanitizeHTML strips everything but inline phrasing markup from input.
func SanitizeHTML() TransformerFunc {
	htmlSanitizer := sanitizer()
	return func(input []byte) ([]byte, error) {
		return htmlSanitizer.SanitizeBytes(input), nil
	}
}

// sanitizer allows the inline subset of [bluemonday.UGCPolicy] that lexicon
// glosses use. Differences:
//
//   - Only phrasing elements, no blocks, lists or tables
//   - Target _blank and noreferrer for links
//   - lang attributes on spans, for mixed-language glosses
func sanitizer() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()

	policy.AllowStandardURLs()
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	policy.AllowElements(
		"abbr",
		"b",
		"bdi",
		"bdo",
		"br",
		"cite",
		"code",
		"dfn",
		"em",
		"i",
		"mark",
		"q",
		"s",
		"small",
		"strong",
		"sub",
		"sup",
		"u",
		"var",
	)

	policy.AllowAttrs("lang").
		Matching(langAttr).
		OnElements("span", "q", "cite", "i", "em")
	policy.AllowAttrs("title").
		Matching(bluemonday.Paragraph).
		OnElements("abbr", "dfn")
	policy.AllowAttrs("href").
		OnElements("a")

	return policy
}
