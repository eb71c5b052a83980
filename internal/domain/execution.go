package domain

// ExecutionResult создаётся ровно один раз на запуск и после этого не меняется.
type ExecutionResult struct {
	Output          string  `json:"output"`
	Error           *string `json:"error"`
	ExecutionTimeMs int64   `json:"executionTime"`
}

func (r ExecutionResult) Failed() bool {
	return r.Error != nil && *r.Error != ""
}

func (r ExecutionResult) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// ErrorResult builds a result whose error field holds msg.
func ErrorResult(output, msg string, ms int64) ExecutionResult {
	if ms < 0 {
		ms = 0
	}
	return ExecutionResult{Output: output, Error: &msg, ExecutionTimeMs: ms}
}
