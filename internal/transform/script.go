package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// goEntryPoint is the symbol a Go script must define:
//
//	func Transform(content string) (string, error)
//
// content is the JSON encoded response tree; the returned string must be the
// JSON encoded canonical document.
const goEntryPoint = "main.Transform"

// goScript runs a Go transformation through the yaegi interpreter. Calls are
// serialized because interpreter state is not safe for concurrent use.
type goScript struct {
	mu sync.Mutex
	fn func(string) (string, error)
}

// CompileGo interprets a Go transformation script in package main.
func CompileGo(name, src string) (Transformer, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("failed to evaluate Go script %s: %w", name, err)
	}
	sym, err := i.Eval(goEntryPoint)
	if err != nil {
		return nil, fmt.Errorf("%w in %s: %w", ErrNoTransformFunc, name, err)
	}
	fn, ok := sym.Interface().(func(string) (string, error))
	if !ok {
		return nil, fmt.Errorf("%w in %s: expected func(string) (string, error), got %s",
			ErrNoTransformFunc, name, sym.Type())
	}
	return &goScript{fn: fn}, nil
}

type scriptResult struct {
	out string
	err error
}

// Transform satisfies [Transformer]. A script still running when ctx ends is
// abandoned; its result is discarded.
func (g *goScript) Transform(ctx context.Context, content any) (any, error) {
	input, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize script input: %w", err)
	}

	done := make(chan scriptResult, 1)
	go func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if ctx.Err() != nil {
			done <- scriptResult{err: ctx.Err()}
			return
		}
		out, err := g.call(string(input))
		done <- scriptResult{out: out, err: err}
	}()

	var res scriptResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("script execution abandoned: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("script failed: %w", res.err)
	}

	var tree any
	if err = json.Unmarshal([]byte(res.out), &tree); err != nil {
		return nil, fmt.Errorf("script returned invalid JSON: %w", err)
	}
	return tree, nil
}

// call invokes the script, converting an interpreter panic into an error.
func (g *goScript) call(input string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panicked: %v", r)
		}
	}()
	return g.fn(input)
}
