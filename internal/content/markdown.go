package content

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
)

// InlineMarkdown renders sanitized inline gloss markup as Markdown. Emphasis
// uses underscores and strong emphasis double asterisks; links without text or
// target are dropped.
func InlineMarkdown() TransformerFunc {
	commonmarkPlugin := commonmark.NewCommonmarkPlugin(
		commonmark.WithEmDelimiter("_"),
		commonmark.WithStrongDelimiter("**"),
		commonmark.WithLinkEmptyContentBehavior(commonmark.LinkBehaviorSkip),
		commonmark.WithLinkEmptyHrefBehavior(commonmark.LinkBehaviorSkip),
	)
	conv := converter.NewConverter(
		converter.WithEscapeMode(converter.EscapeModeSmart),
		converter.WithPlugins(base.NewBasePlugin(), commonmarkPlugin, strikethrough.NewStrikethroughPlugin()),
	)

	return func(input []byte) ([]byte, error) {
		md, err := conv.ConvertString(string(input))
		if err != nil {
			return nil, err
		}
		return []byte(md), nil
	}
}
