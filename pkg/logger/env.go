package logger

import (
	"os"
	"strings"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

// переменные окружения, из которых берётся среда; первая непустая побеждает
var envVars = []string{"CODEROOM_ENV", "APP_ENV"}

// ParseEnv нормализует значение из конфига. Пустая строка означает
// "смотри окружение процесса".
func ParseEnv(s string) Env {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DetectEnv()
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod":
		return EnvStage
	default:
		return EnvDev
	}
}

func DetectEnv() Env {
	for _, key := range envVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return ParseEnv(v)
		}
	}
	return EnvDev
}

// Interactive: dev пишет человекочитаемый текст, остальные среды JSON.
func (e Env) Interactive() bool {
	return e == EnvDev || e == ""
}
