package quiz

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default_corpus.json
var defaultCorpus []byte

// DefaultCorpus returns the question set bundled with the binary.
func DefaultCorpus() ([]Question, error) {
	qs, err := ParseCorpus(defaultCorpus, ".json")
	return qs, errors.Wrap(err, "bundled corpus")
}

// LoadCorpus reads a question file (.json, .yaml or .yml). An empty path
// falls back to the bundled corpus.
func LoadCorpus(path string) ([]Question, error) {
	if path == "" {
		return DefaultCorpus()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read corpus %s", path)
	}
	qs, err := ParseCorpus(data, filepath.Ext(path))
	return qs, errors.Wrapf(err, "corpus %s", path)
}

func ParseCorpus(data []byte, ext string) ([]Question, error) {
	var qs []Question
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &qs); err != nil {
			return nil, errors.Wrap(err, "decode json")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &qs); err != nil {
			return nil, errors.Wrap(err, "decode yaml")
		}
	default:
		return nil, errors.Errorf("unsupported corpus format %q", ext)
	}
	if err := ValidateCorpus(qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// ValidateCorpus reports every structural problem at once.
func ValidateCorpus(qs []Question) error {
	var result *multierror.Error
	if len(qs) == 0 {
		return errors.New("corpus is empty")
	}
	ids := make(map[int]bool, len(qs))
	for _, q := range qs {
		if ids[q.ID] {
			result = multierror.Append(result, fmt.Errorf("question %d: duplicate id", q.ID))
		}
		ids[q.ID] = true
		if strings.TrimSpace(q.Prompt) == "" {
			result = multierror.Append(result, fmt.Errorf("question %d: empty prompt", q.ID))
		}
		if len(q.Options) == 0 {
			result = multierror.Append(result, fmt.Errorf("question %d: no options", q.ID))
		}
		opts := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if opts[o] {
				result = multierror.Append(result, fmt.Errorf("question %d: duplicate option %q", q.ID, o))
			}
			opts[o] = true
		}
		if len(q.CorrectOptions) == 0 {
			result = multierror.Append(result, fmt.Errorf("question %d: no correct options", q.ID))
		}
		seen := make(map[string]bool, len(q.CorrectOptions))
		for _, c := range q.CorrectOptions {
			if seen[c] {
				result = multierror.Append(result, fmt.Errorf("question %d: duplicate correct option %q", q.ID, c))
			}
			seen[c] = true
			if !opts[c] {
				result = multierror.Append(result, fmt.Errorf("question %d: correct option %q is not an option", q.ID, c))
			}
		}
	}
	return result.ErrorOrNil()
}
