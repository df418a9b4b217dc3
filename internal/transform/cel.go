package transform

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	contentVar = "content"

	// celInterruptFrequency is how many comprehension iterations run between
	// checks of the evaluation context.
	celInterruptFrequency = 100
)

var (
	jsonValueType = reflect.TypeFor[*structpb.Value]()

	celEnv = sync.OnceValues(func() (*cel.Env, error) {
		env, err := cel.NewEnv(
			cel.Variable(contentVar, cel.DynType),
			ext.Strings(),
			ext.Encoders(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create CEL environment: %w", err)
		}
		return env, nil
	})
)

// celTransformer evaluates a single CEL expression over the variable
// `content`. The expression must produce a map, for example:
//
//	{"tc:suggestion": content.sgns.map(s, {"tc:value": s.v, "tc:description": s.d})}
type celTransformer struct {
	program cel.Program
}

// CompileCEL compiles a CEL transformation expression.
func CompileCEL(src string) (Transformer, error) {
	env, err := celEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(strings.TrimSpace(src))
	if err = issues.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", err)
	}
	program, err := env.Program(ast, cel.InterruptCheckFrequency(celInterruptFrequency))
	if err != nil {
		return nil, fmt.Errorf("failed to plan CEL program: %w", err)
	}
	return celTransformer{program: program}, nil
}

// Transform satisfies [Transformer].
func (c celTransformer) Transform(ctx context.Context, content any) (any, error) {
	val, _, err := c.program.ContextEval(ctx, map[string]any{contentVar: content})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("CEL evaluation interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}
	if _, ok := val.(traits.Mapper); !ok {
		return nil, fmt.Errorf("CEL expression must return a map, got %s", val.Type().TypeName())
	}
	native, err := val.ConvertToNative(jsonValueType)
	if err != nil {
		return nil, fmt.Errorf("failed to convert CEL result to JSON: %w", err)
	}
	jsonVal, ok := native.(*structpb.Value)
	if !ok {
		return nil, fmt.Errorf("expected %T, got %T", jsonVal, native)
	}
	return jsonVal.AsInterface(), nil
}
