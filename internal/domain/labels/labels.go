// Package labels reads and writes the newline-delimited label vocabularies
// offered to the annotator (event classes and team classes).
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const filePermission = 0o644

// Sentinel errors.
var (
	ErrNotFound = errors.New("label file not found")
)

// Vocabulary is the pair of label lists shown to the annotator.
type Vocabulary struct {
	Events []string `json:"events"`
	Teams  []string `json:"teams"`
}

// Files locates the two vocabulary files.
type Files struct {
	Events string
	Teams  string
}

// NewFiles joins the vocabulary file names onto dir.
func NewFiles(dir, eventsFile, teamsFile string) Files {
	return Files{
		Events: filepath.Join(dir, eventsFile),
		Teams:  filepath.Join(dir, teamsFile),
	}
}

// Read loads one label per line, dropping trailing whitespace and blank lines.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open labels %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels %s: %w", path, err)
	}
	return out, nil
}

// Write replaces path with one label per line.
func Write(path string, items []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create labels dir: %w", err)
	}
	var b strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		b.WriteString(item)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), filePermission); err != nil {
		return fmt.Errorf("write labels %s: %w", path, err)
	}
	return nil
}

// Load reads both vocabularies. A missing file yields an empty list.
func (f Files) Load() (Vocabulary, error) {
	var v Vocabulary
	var err error
	if v.Events, err = readOptional(f.Events); err != nil {
		return Vocabulary{}, err
	}
	if v.Teams, err = readOptional(f.Teams); err != nil {
		return Vocabulary{}, err
	}
	return v, nil
}

// Save writes both vocabularies.
func (f Files) Save(v Vocabulary) error {
	if err := Write(f.Events, v.Events); err != nil {
		return err
	}
	return Write(f.Teams, v.Teams)
}

func readOptional(path string) ([]string, error) {
	items, err := Read(path)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	return items, err
}
