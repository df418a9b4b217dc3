// Package content normalizes raw response bodies and renders suggestion
// descriptions.
package content

// Transformer rewrites a byte payload: a raw response body or a single
// description.
type Transformer interface {
	Transform(input []byte) ([]byte, error)
}

// TransformerFunc adapts a plain function to [Transformer].
type TransformerFunc func(input []byte) ([]byte, error)

// Transform calls fn.
func (fn TransformerFunc) Transform(input []byte) ([]byte, error) { return fn(input) }

// Chain returns a [TransformerFunc] that feeds input through each of steps in
// order. Nil steps are skipped. Processing stops at the first error.
func Chain(steps ...Transformer) TransformerFunc {
	return func(input []byte) (out []byte, err error) {
		out = input
		for _, step := range steps {
			if step == nil {
				continue
			}
			if out, err = step.Transform(out); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}
