// Package expression wraps expr-lang/expr with the helper functions exposed
// to workflow branch conditions and routing rules. Compiled programs are
// cached per expression string.
package expression

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine compiles and evaluates routing expressions.
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{
		programCache: make(map[string]*vm.Program),
	}
}

// Evaluate compiles (if needed) and runs an expression against the given environment
func (e *Engine) Evaluate(expression string, env map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression, env)
	if err != nil {
		return nil, err
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// EvaluateCondition evaluates an expression that must yield a boolean.
// Used for workflow edge conditions.
func (e *Engine) EvaluateCondition(expression string, env map[string]interface{}) (bool, error) {
	result, err := e.Evaluate(expression, env)
	if err != nil {
		return false, err
	}

	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a boolean (got %T)", expression, result)
	}
	return b, nil
}

// Validate checks that an expression compiles without running it.
// Called when a workflow definition is saved.
func (e *Engine) Validate(expression string) error {
	_, err := expr.Compile(expression, e.options(map[string]interface{}{})...)
	return err
}

// ClearCache drops all compiled programs
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.programCache = make(map[string]*vm.Program)
}

func (e *Engine) getProgram(expression string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	program, err := expr.Compile(expression, e.options(env)...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	e.programCache[expression] = program
	return program, nil
}

// options defines the helper functions available inside expressions.
func (e *Engine) options(env map[string]interface{}) []expr.Option {
	return []expr.Option{
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.Function("TODAY", func(params ...interface{}) (interface{}, error) {
			return time.Now().Format("2006-01-02"), nil
		}),
		expr.Function("NOW", func(params ...interface{}) (interface{}, error) {
			return time.Now().Format("2006-01-02 15:04:05"), nil
		}),
		expr.Function("HOUR", func(params ...interface{}) (interface{}, error) {
			return time.Now().Hour(), nil
		}),
		expr.Function("UPPER", func(params ...interface{}) (interface{}, error) {
			s, err := oneString("UPPER", params)
			if err != nil {
				return nil, err
			}
			return strings.ToUpper(s), nil
		}),
		expr.Function("LOWER", func(params ...interface{}) (interface{}, error) {
			s, err := oneString("LOWER", params)
			if err != nil {
				return nil, err
			}
			return strings.ToLower(s), nil
		}),
		expr.Function("LEN", func(params ...interface{}) (interface{}, error) {
			s, err := oneString("LEN", params)
			if err != nil {
				return nil, err
			}
			return len(s), nil
		}),
		expr.Function("CONTAINS", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("CONTAINS requires 2 arguments")
			}
			haystack, ok1 := params[0].(string)
			needle, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("CONTAINS arguments must be strings")
			}
			return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)), nil
		}),
	}
}

func oneString(name string, params []interface{}) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("%s requires 1 argument", name)
	}
	s, ok := params[0].(string)
	if !ok {
		return "", fmt.Errorf("%s argument must be string", name)
	}
	return s, nil
}
