package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", "  \n\t", true},
		{"js placeholder", "// Write your code here\n", true},
		{"py placeholder", "  # Write your code here  ", true},
		{"js template", StarterTemplate(LanguageJavaScript), true},
		{"py template", StarterTemplate(LanguagePython), true},
		{"user code", "console.log(42)", false},
		{"placeholder plus code", "// Write your code here\nconst x = 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDefaultCode(tt.code))
		})
	}
}

func TestParseLanguage(t *testing.T) {
	l, err := ParseLanguage("JS")
	require.NoError(t, err)
	assert.Equal(t, LanguageJavaScript, l)

	l, err = ParseLanguage("python")
	require.NoError(t, err)
	assert.Equal(t, LanguagePython, l)

	_, err = ParseLanguage("ruby")
	assert.ErrorIs(t, err, ErrInvalidLanguage)
}

func TestFindTask(t *testing.T) {
	task, ok := FindTask("fibonacci-py")
	require.True(t, ok)
	assert.Equal(t, LanguagePython, task.Language)
	assert.NotEmpty(t, task.StarterCode)

	_, ok = FindTask("missing")
	assert.False(t, ok)

	lib := TaskLibrary()
	lib[0].Title = "changed"
	orig, _ := FindTask(lib[0].ID)
	assert.NotEqual(t, "changed", orig.Title)
}
