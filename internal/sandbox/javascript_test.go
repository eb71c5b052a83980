package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJavaScript_Execute(t *testing.T) {
	cases := []struct {
		name    string
		code    string
		output  string
		errPart string
	}{
		{name: "hello", code: `console.log('Hello')`, output: "Hello\n"},
		{name: "sequential prints", code: "console.log('a')\nconsole.log('b')\nconsole.log('c')", output: "a\nb\nc\n"},
		{name: "args space joined", code: `console.log('sum', 1 + 2, null, undefined, [1, 2])`, output: "sum 3   1,2\n"},
		{name: "return value appended", code: "console.log('x')\nreturn 42", output: "x\n42"},
		{name: "undefined return ignored", code: "return undefined", output: ""},
		{name: "other console methods", code: "console.error('e'); console.warn('w')", output: "e\nw\n"},
		{name: "throw keeps output", code: "console.log('before')\nthrow new Error('Boom')", output: "before\n", errPart: "Error: Boom"},
		{name: "throw string", code: `throw 'plain'`, errPart: "plain"},
		{name: "syntax error", code: `function (`, errPart: "SyntaxError"},
		{name: "reference error", code: `undefinedFn()`, errPart: "ReferenceError"},
		{
			name:    "runaway recursion",
			code:    "console.log('start')\nfunction f(n) { return f(n + 1) + 1 }\nreturn f(0)",
			output:  "start\n",
			errPart: "Maximum call stack size exceeded",
		},
	}

	js := NewJavaScript()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := js.Execute(context.Background(), tc.code)

			assert.Equal(t, tc.output, res.Output)
			assert.GreaterOrEqual(t, res.ExecutionTimeMs, int64(0))
			if tc.errPart == "" {
				assert.Nil(t, res.Error)
				return
			}
			require.NotNil(t, res.Error)
			assert.Contains(t, *res.Error, tc.errPart)
		})
	}
}

func TestJavaScript_IsolatedPerRun(t *testing.T) {
	js := NewJavaScript()
	ctx := context.Background()

	first := js.Execute(ctx, `globalThis.leak = 1; return typeof leak`)
	require.Nil(t, first.Error)
	assert.Equal(t, "number", first.Output)

	second := js.Execute(ctx, `return typeof leak`)
	require.Nil(t, second.Error)
	assert.Equal(t, "undefined", second.Output)

	hostAccess := js.Execute(ctx, `return typeof require + ' ' + typeof process`)
	assert.Equal(t, "undefined undefined", hostAccess.Output)
}

func TestJavaScript_InterruptedByContext(t *testing.T) {
	js := NewJavaScript()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := js.Execute(ctx, "console.log('spin')\nwhile (true) {}")

	require.NotNil(t, res.Error)
	assert.Contains(t, *res.Error, "interrupted")
	assert.Equal(t, "spin\n", res.Output)
	assert.GreaterOrEqual(t, res.ExecutionTimeMs, int64(0))
}
