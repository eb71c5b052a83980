package sandbox

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// resultMarker отделяет JSON с результатом от того, что код мог записать
// в fd 1 мимо sys.stdout.
const resultMarker = "\x00coderoom-result:"

// Исходник передаётся в base64, поэтому кавычки и управляющие символы
// пользователя не могут выйти за пределы строкового литерала.
const driverTemplate = `import base64, io, json, sys, traceback
_src = base64.b64decode("%s").decode("utf-8")
_out, _err = io.StringIO(), io.StringIO()
_orig_out, _orig_err = sys.stdout, sys.stderr
sys.stdout, sys.stderr = _out, _err
try:
    exec(compile(_src, "<room>", "exec"), {"__name__": "__main__", "__builtins__": __builtins__})
except SystemExit as _exc:
    if _exc.code not in (None, 0):
        print(_exc.code, file=sys.stderr)
except BaseException as _exc:
    # первый кадр принадлежит драйверу, пользователю он не нужен
    traceback.print_exception(type(_exc), _exc, _exc.__traceback__.tb_next)
finally:
    sys.stdout, sys.stderr = _orig_out, _orig_err
sys.stdout.write(%q + json.dumps({"stdout": _out.getvalue(), "stderr": _err.getvalue()}))
sys.stdout.flush()
`

func buildDriver(code string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(code))
	return fmt.Sprintf(driverTemplate, encoded, resultMarker)
}

type driverResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// parseDriverOutput разбирает вывод процесса интерпретатора.
// Без маркера (интерпретатор упал до конца драйвера) возвращает сырые потоки.
func parseDriverOutput(stdout, stderr []byte) (output, errText string) {
	idx := bytes.LastIndex(stdout, []byte(resultMarker))
	if idx < 0 {
		return string(stdout), strings.TrimRight(string(stderr), "\n")
	}

	var res driverResult
	if err := json.Unmarshal(bytes.TrimSpace(stdout[idx+len(resultMarker):]), &res); err != nil {
		return string(stdout[:idx]), fmt.Sprintf("malformed interpreter result: %v", err)
	}
	return string(stdout[:idx]) + res.Stdout, res.Stderr
}
