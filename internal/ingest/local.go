package ingest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
)

// FileExtractor is the local fallback extractor. It handles plain text and
// markdown directly, HTML through readability, and PDFs through a pure-Go
// text extractor. Anything else is ErrUnreadable.
type FileExtractor struct{}

// NewFileExtractor returns a ready FileExtractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// Extract reads the file at path and returns its plain text.
func (e *FileExtractor) Extract(ctx context.Context, path string) (*Converted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	case ".html", ".htm":
		return e.extractHTML(path)
	case ".txt", ".md", ".markdown", "":
		return e.extractPlain(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrUnreadable, filepath.Ext(path))
	}
}

func (e *FileExtractor) extractPlain(path string) (*Converted, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return &Converted{Text: string(raw)}, nil
}

func (e *FileExtractor) extractHTML(path string) (*Converted, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	// Readability needs a base URL to resolve relative links; a file URL
	// is enough for local documents.
	base := &url.URL{Scheme: "file", Path: path}
	article, err := readability.FromReader(f, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	text := article.TextContent
	if article.Title != "" {
		text = article.Title + "\n\n" + text
	}
	return &Converted{Text: text}, nil
}

func (e *FileExtractor) extractPDF(path string) (*Converted, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One bad page should not discard the rest of the document.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "## Page %d\n\n%s\n\n", i, strings.TrimSpace(text))
	}

	if b.Len() == 0 {
		return nil, fmt.Errorf("%w: no extractable text in PDF", ErrUnreadable)
	}
	return &Converted{Text: b.String(), PageCount: pages}, nil
}
