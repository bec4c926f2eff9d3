package quiz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCorpus(t *testing.T) {
	qs, err := DefaultCorpus()
	require.NoError(t, err)
	assert.Len(t, qs, 61)
}

func TestValidateCorpus_CollectsAllProblems(t *testing.T) {
	err := ValidateCorpus([]Question{
		{ID: 1, Prompt: "ok", Options: []string{"A", "B"}, CorrectOptions: []string{"C"}},
		{ID: 1, Prompt: "", Options: []string{"A", "A"}, CorrectOptions: nil},
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `correct option "C" is not an option`)
	assert.Contains(t, msg, "duplicate id")
	assert.Contains(t, msg, "empty prompt")
	assert.Contains(t, msg, `duplicate option "A"`)
	assert.Contains(t, msg, "no correct options")
}

func TestLoadCorpus_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: 7
  prompt: Pick the prime
  options: ["4", "7", "9"]
  correct_options: ["7"]
  note: one answer
`), 0o600))

	qs, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, TypeSingle, qs[0].Type())
	assert.Equal(t, "one answer", qs[0].Note)
}

func TestLoadCorpus_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))

	_, err := LoadCorpus(path)
	assert.ErrorContains(t, err, "unsupported corpus format")
}

func TestLoadCorpus_EmptyPathUsesBundled(t *testing.T) {
	qs, err := LoadCorpus("")
	require.NoError(t, err)
	assert.NotEmpty(t, qs)
}
