package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/dop251/goja"
)

var consoleMethods = []string{"log", "info", "warn", "error", "debug"}

// глубина стека вызовов; без ограничения goja растит стек в куче до OOM
const maxCallStackSize = 10_000

// JavaScript создаёт отдельный goja.Runtime на каждый запуск и выбрасывает его
// после результата. В контекст попадает только console.
type JavaScript struct{}

func NewJavaScript() *JavaScript {
	return &JavaScript{}
}

func (j *JavaScript) Execute(ctx context.Context, code string) domain.ExecutionResult {
	vm := goja.New()
	vm.SetMaxCallStackSize(maxCallStackSize)

	var out strings.Builder
	console := vm.NewObject()
	write := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			if goja.IsUndefined(arg) || goja.IsNull(arg) {
				continue
			}
			parts[i] = arg.String()
		}
		out.WriteString(strings.Join(parts, " "))
		out.WriteByte('\n')
		return goja.Undefined()
	}
	for _, name := range consoleMethods {
		if err := console.Set(name, write); err != nil {
			return domain.ErrorResult("", err.Error(), 0)
		}
	}
	if err := vm.Set("console", console); err != nil {
		return domain.ErrorResult("", err.Error(), 0)
	}

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	start := time.Now()
	res, err := runFunctionBody(vm, code)
	ms := elapsedMs(start)

	if err != nil {
		return domain.ErrorResult(out.String(), jsErrorText(err), ms)
	}
	if res != nil && !goja.IsUndefined(res) {
		out.WriteString(res.String())
	}
	return domain.ExecutionResult{Output: out.String(), ExecutionTimeMs: ms}
}

// runFunctionBody — эквивалент new Function(code)().
func runFunctionBody(vm *goja.Runtime, code string) (res goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	fnObj, err := vm.New(vm.Get("Function"), vm.ToValue(code))
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fnObj)
	if !ok {
		return nil, errors.New("code is not callable")
	}
	return fn(goja.Undefined())
}

func jsErrorText(err error) string {
	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return "RangeError: Maximum call stack size exceeded"
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return exc.Value().String()
	}
	var intr *goja.InterruptedError
	if errors.As(err, &intr) {
		return fmt.Sprintf("execution interrupted: %v", intr.Value())
	}
	return err.Error()
}
