package content

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DescriptionFormat selects how suggestion descriptions are rendered.
type DescriptionFormat string

// Description formats.
const (
	// DescriptionRaw keeps descriptions exactly as the transformation
	// produced them.
	DescriptionRaw DescriptionFormat = "raw"
	// DescriptionText reduces descriptions to plain text.
	DescriptionText DescriptionFormat = "text"
	// DescriptionHTML keeps inline markup, dropping anything unsafe.
	DescriptionHTML DescriptionFormat = "html"
	// DescriptionMarkdown converts inline markup to Markdown.
	DescriptionMarkdown DescriptionFormat = "markdown"
)

// DescriptionFormats lists every supported format.
var DescriptionFormats = []DescriptionFormat{
	DescriptionRaw, DescriptionText, DescriptionHTML, DescriptionMarkdown,
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)

	stripPolicy = bluemonday.StrictPolicy()

	descriptionHTMLPipeline     = Chain(NormalizeNBSP(), SanitizeHTML())
	descriptionMarkdownPipeline = Chain(NormalizeNBSP(), SanitizeHTML(), InlineMarkdown())
)

// SanitizeDescription reduces a suggestion description to plain text: markup
// is removed, entities are unescaped and runs of whitespace collapse to a
// single space.
func SanitizeDescription(description string) string {
	if description == "" {
		return description
	}
	out := nbspPattern.ReplaceAllString(description, " ")
	out = stripPolicy.Sanitize(out)
	out = html.UnescapeString(out)
	out = whitespacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// FormatDescription renders description in the given format. An empty format
// is treated as [DescriptionRaw].
func FormatDescription(format DescriptionFormat, description string) (string, error) {
	var pipeline Transformer
	switch format {
	case "", DescriptionRaw:
		return description, nil
	case DescriptionText:
		return SanitizeDescription(description), nil
	case DescriptionHTML:
		pipeline = descriptionHTMLPipeline
	case DescriptionMarkdown:
		pipeline = descriptionMarkdownPipeline
	default:
		return "", fmt.Errorf("unknown description format %q", format)
	}
	if description == "" {
		return description, nil
	}
	out, err := pipeline.Transform([]byte(description))
	if err != nil {
		return "", fmt.Errorf("failed to render description as %s: %w", format, err)
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(string(out), " ")), nil
}
