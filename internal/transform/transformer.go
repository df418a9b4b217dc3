// Package transform reshapes custom suggestion responses into the canonical
// suggestions document.
//
// A response body is decoded into a generic tree (maps, lists and scalars, as
// produced by encoding/json) and handed to a [Transformer]: either a
// declarative [Mapping] or a user supplied script loaded through a [Loader].
// The tree returned by the transformer must have the shape of the canonical
// JSON document.
package transform

import "context"

// Transformer reshapes a decoded response tree.
type Transformer interface {
	// Transform returns the reshaped tree or an error. Implementations must
	// not modify content.
	Transform(ctx context.Context, content any) (any, error)
}

// TransformerFunc is a [Transformer] that can be represented just by the
// [Transform] method.
type TransformerFunc func(ctx context.Context, content any) (any, error)

// Transform satisfies [Transformer].
func (fn TransformerFunc) Transform(ctx context.Context, content any) (any, error) {
	return fn(ctx, content)
}

// Chain runs transformers in order, feeding each the previous output. The
// first error stops the chain.
func Chain(transformers ...Transformer) TransformerFunc {
	return func(ctx context.Context, content any) (any, error) {
		var err error
		for _, transformer := range transformers {
			if content, err = transformer.Transform(ctx, content); err != nil {
				return nil, err
			}
		}
		return content, nil
	}
}
