package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateArithmetic(t *testing.T) {
	e := NewEngine()

	result, err := e.Evaluate("1 + 2 * 3", map[string]interface{}{})
	assert.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestEvaluateWithEnv(t *testing.T) {
	e := NewEngine()

	env := map[string]interface{}{
		"queue_depth": 12,
		"amd_result":  "human",
	}

	result, err := e.Evaluate(`queue_depth > 10 && amd_result == "human"`, env)
	assert.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestEvaluateCondition(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		expr     string
		env      map[string]interface{}
		expected bool
		wantErr  bool
	}{
		{"true condition", `digit == "1"`, map[string]interface{}{"digit": "1"}, true, false},
		{"false condition", `digit == "1"`, map[string]interface{}{"digit": "2"}, false, false},
		{"non-boolean result", `1 + 1`, map[string]interface{}{}, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := e.EvaluateCondition(tc.expr, tc.env)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, result)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	e := NewEngine()

	result, err := e.Evaluate(`UPPER("sales")`, map[string]interface{}{})
	assert.NoError(t, err)
	assert.Equal(t, "SALES", result)

	result, err = e.Evaluate(`CONTAINS("Billing Question", "billing")`, map[string]interface{}{})
	assert.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = e.Evaluate(`LEN("1234")`, map[string]interface{}{})
	assert.NoError(t, err)
	assert.Equal(t, 4, result)
}

func TestValidate(t *testing.T) {
	e := NewEngine()

	assert.NoError(t, e.Validate(`caller_segment == "vip"`))
	assert.Error(t, e.Validate(`caller_segment ==`))
}

func TestProgramCaching(t *testing.T) {
	e := NewEngine()

	_, err := e.Evaluate("2 + 2", map[string]interface{}{})
	assert.NoError(t, err)
	assert.Len(t, e.programCache, 1)

	// Same expression should hit the cache, not add an entry
	_, err = e.Evaluate("2 + 2", map[string]interface{}{})
	assert.NoError(t, err)
	assert.Len(t, e.programCache, 1)

	e.ClearCache()
	assert.Empty(t, e.programCache)
}
