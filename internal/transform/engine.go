package transform

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/bcdh/teicompleter/internal/content"
	"github.com/bcdh/teicompleter/internal/suggestion"
)

// DefaultTimeout bounds a single transformation when none is configured.
const DefaultTimeout = 2 * time.Second

// Kind identifies how a [Transformation] reshapes responses.
type Kind string

// Transformation kinds.
const (
	// KindNone expects responses already in the canonical format.
	KindNone Kind = "none"
	// KindMapping reshapes responses with a declarative [Mapping].
	KindMapping Kind = "mapping"
	// KindScript reshapes responses with a CEL or Go script.
	KindScript Kind = "script"
)

// Transformation is a named action applied to responses before they are
// handed to a completion client.
type Transformation struct {
	Name    string
	Script  string
	Mapping *Mapping
}

// Kind reports how t reshapes responses.
func (t Transformation) Kind() Kind {
	switch {
	case t.Script != "":
		return KindScript
	case t.Mapping != nil:
		return KindMapping
	default:
		return KindNone
	}
}

type format int

const (
	formatUnknown format = iota
	formatJSON
	formatXML
)

func classify(contentType string) (format, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return formatUnknown, fmt.Errorf("%w %q: %w", ErrUnsupportedMediaType, contentType, err)
	}
	switch {
	case mediaType == "application/xml", mediaType == "text/xml", strings.HasSuffix(mediaType, "+xml"):
		return formatXML, nil
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return formatJSON, nil
	default:
		return formatUnknown, fmt.Errorf("%w %q", ErrUnsupportedMediaType, mediaType)
	}
}

// Engine applies transformations to response bodies.
type Engine struct {
	loader       *Loader
	logger       *slog.Logger
	timeout      time.Duration
	descriptions content.DescriptionFormat
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithTimeout bounds each transformation run.
func WithTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithDescriptionFormat renders suggestion descriptions in format.
func WithDescriptionFormat(format content.DescriptionFormat) EngineOption {
	return func(e *Engine) { e.descriptions = format }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an Engine that loads scripts through loader.
func NewEngine(loader *Loader, opts ...EngineOption) *Engine {
	engine := &Engine{
		loader:       loader,
		logger:       slog.Default(),
		timeout:      DefaultTimeout,
		descriptions: content.DescriptionRaw,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Apply converts body, of the given content type, to the canonical
// suggestions document using t. Bodies must be JSON or XML; anything else
// fails with [ErrUnsupportedMediaType]. Other failures are reported as a
// [*TransformationError].
func (e *Engine) Apply(
	ctx context.Context,
	contentType string,
	body []byte,
	t Transformation,
) (*suggestion.Suggestions, error) {
	bodyFormat, err := classify(contentType)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "transforming response",
		slog.String("transformation", t.Name),
		slog.String("kind", string(t.Kind())),
		slog.String("content_type", contentType),
	)

	out, err := e.apply(ctx, bodyFormat, contentType, body, t)
	if err != nil {
		return nil, &TransformationError{Transformation: t.Name, Err: err}
	}
	for i, sgn := range out.Suggestion {
		if out.Suggestion[i].Description, err = content.FormatDescription(e.descriptions, sgn.Description); err != nil {
			return nil, &TransformationError{Transformation: t.Name, Err: err}
		}
	}
	return out, nil
}

func (e *Engine) apply(
	ctx context.Context,
	bodyFormat format,
	contentType string,
	body []byte,
	t Transformation,
) (*suggestion.Suggestions, error) {
	normalize := content.StripBOM()
	if bodyFormat == formatJSON {
		normalize = content.UTF8Transformer(contentType)
	}
	body, err := normalize(body)
	if err != nil {
		return nil, err
	}

	var transformer Transformer
	switch t.Kind() {
	case KindNone:
		if bodyFormat == formatXML {
			return suggestion.DecodeXML(bytes.NewReader(body))
		}
		return suggestion.DecodeJSON(bytes.NewReader(body))
	case KindMapping:
		transformer = *t.Mapping
	case KindScript:
		if transformer, err = e.loader.Load(t.Script); err != nil {
			return nil, err
		}
	}

	var tree any
	if bodyFormat == formatXML {
		tree, err = DecodeXMLTree(body)
	} else {
		tree, err = DecodeJSONTree(body)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	result, err := Chain(transformer, requireObject).Transform(ctx, tree)
	if err != nil {
		return nil, err
	}
	return ToSuggestions(result)
}
