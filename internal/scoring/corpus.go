package scoring

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Corpus holds each subject's known public statements.
type Corpus interface {
	Statements(subjectID string) []string
}

// corpusFile is the on-disk layout:
//
//	subjects:
//	  elonmusk:
//	    - "first statement"
//	    - "second statement"
type corpusFile struct {
	Subjects map[string][]string `yaml:"subjects"`
}

// FileCorpus is a read-only corpus loaded from YAML.
type FileCorpus struct {
	subjects map[string][]string
}

// LoadCorpus reads a YAML corpus. Subject keys are case-insensitive.
func LoadCorpus(path string) (*FileCorpus, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand corpus path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	return ParseCorpus(data)
}

// ParseCorpus decodes YAML corpus bytes.
func ParseCorpus(data []byte) (*FileCorpus, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}
	c := &FileCorpus{subjects: make(map[string][]string, len(f.Subjects))}
	for subject, statements := range f.Subjects {
		key := normalizeSubject(subject)
		for _, s := range statements {
			if s = strings.TrimSpace(s); s != "" {
				c.subjects[key] = append(c.subjects[key], s)
			}
		}
	}
	return c, nil
}

// Statements returns a copy of the subject's statements, or nil.
func (c *FileCorpus) Statements(subjectID string) []string {
	s := c.subjects[normalizeSubject(subjectID)]
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}

// Subjects lists the subjects in sorted order.
func (c *FileCorpus) Subjects() []string {
	out := make([]string, 0, len(c.subjects))
	for s := range c.subjects {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
