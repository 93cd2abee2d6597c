package grader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tutorai/tutorai/internal/module"
)

// ErrUnknownSection is returned for a module with no section file.
var ErrUnknownSection = errors.New("grader: no textbook section for module")

// sectionExts are tried in order.
var sectionExts = []string{".txt", ".md"}

// Textbook reads section text from a directory of <chapter>.<section>
// files, e.g. 6.1.txt or 6.2.md.
type Textbook struct {
	fsys fs.FS
}

func NewTextbook(dir string) *Textbook {
	return &Textbook{fsys: os.DirFS(dir)}
}

// NewTextbookFS is NewTextbook over an arbitrary filesystem.
func NewTextbookFS(fsys fs.FS) *Textbook {
	return &Textbook{fsys: fsys}
}

// Section returns the trimmed text for label.
func (t *Textbook) Section(label string) (string, error) {
	l, err := module.Parse(label)
	if err != nil {
		return "", err
	}
	for _, ext := range sectionExts {
		b, err := fs.ReadFile(t.fsys, l.String()+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read section %s: %w", l, err)
		}
		text := strings.TrimSpace(string(b))
		if text == "" {
			return "", fmt.Errorf("section %s is empty: %w", l, ErrUnknownSection)
		}
		return text, nil
	}
	return "", fmt.Errorf("section %s: %w", l, ErrUnknownSection)
}

// Labels lists the sections present, in module order.
func (t *Textbook) Labels() ([]string, error) {
	entries, err := fs.ReadDir(t.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list textbook: %w", err)
	}
	var labels []module.Label
	seen := map[module.Label]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".txt" && ext != ".md" {
			continue
		}
		l, err := module.Parse(strings.TrimSuffix(e.Name(), ext))
		if err != nil || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Chapter != labels[j].Chapter {
			return labels[i].Chapter < labels[j].Chapter
		}
		return labels[i].Section < labels[j].Section
	})
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.String()
	}
	return out, nil
}
