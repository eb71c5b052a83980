package domain

import "strings"

const (
	jsPlaceholder = "// Write your code here"
	pyPlaceholder = "# Write your code here"
)

// StarterTemplate — стартовый код для нового языка.
func StarterTemplate(lang Language) string {
	if lang == LanguagePython {
		return pyPlaceholder + "\ndef solution():\n    pass\n"
	}
	return jsPlaceholder + "\nfunction solution() {\n  // your solution\n}\n"
}

// IsDefaultCode сообщает, что буфер пуст или содержит только плейсхолдер/шаблон,
// то есть его можно безопасно заменить шаблоном другого языка.
func IsDefaultCode(code string) bool {
	trimmed := strings.TrimSpace(code)
	switch trimmed {
	case "", jsPlaceholder, pyPlaceholder:
		return true
	case strings.TrimSpace(StarterTemplate(LanguageJavaScript)),
		strings.TrimSpace(StarterTemplate(LanguagePython)):
		return true
	}
	return false
}
