// Package loader turns files on disk into documents.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// FileLoader reads PDF and plain-text files.
type FileLoader struct{}

func New() *FileLoader { return &FileLoader{} }

// Supported reports whether path has an extension the loader can read.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

func (l *FileLoader) Load(path string) (domain.Document, error) {
	var (
		content string
		pages   int
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		content, pages, err = readPDF(path)
	case ".txt", ".md":
		var data []byte
		data, err = os.ReadFile(path)
		content, pages = string(data), 1
	default:
		return domain.Document{}, fmt.Errorf("unsupported document type: %s", path)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("load %s: %w", path, err)
	}
	return domain.Document{
		ID:      hashString(path),
		Path:    path,
		Title:   filepath.Base(path),
		Content: content,
		Pages:   pages,
	}, nil
}

// readPDF extracts the plain text of every page, pages separated by a blank line.
func readPDF(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return "", 0, err
	}
	defer f.Close()

	var b strings.Builder
	n := r.NumPage()
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(text))
	}
	return b.String(), n, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
