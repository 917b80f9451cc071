package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/studybuddy-ai/studybuddy/internal/domain"
)

// Normalizer turns one raw source into a SourceDocument. It tries the remote
// conversion path first and degrades to the local extractor; only when both
// paths fail does the document count as failed. Failures are per-document
// and never abort sibling documents.
type Normalizer struct {
	converter Converter
	local     LocalExtractor
	logger    *slog.Logger
}

// NewNormalizer wires a Normalizer. converter may be nil when the remote
// service is not configured; local must not be nil.
func NewNormalizer(converter Converter, local LocalExtractor, logger *slog.Logger) (*Normalizer, error) {
	if local == nil {
		return nil, errors.New("local extractor cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Normalizer{converter: converter, local: local, logger: logger}, nil
}

// Normalize converts one source (file path or URL) into a SourceDocument.
// The returned error wraps domain.ErrIngestion when every path failed.
// Persistence is the caller's responsibility.
func (n *Normalizer) Normalize(ctx context.Context, source string) (*domain.SourceDocument, error) {
	raw := n.readRaw(source)

	var (
		converted *Converted
		method    domain.ExtractionMethod
		remoteErr error
	)

	// The remote service only accepts URLs; local files go straight to the
	// fallback extractor.
	if n.converter != nil && isURL(source) {
		converted, remoteErr = n.converter.Convert(ctx, source)
		if remoteErr == nil {
			method = domain.ExtractionRemote
		} else {
			n.logger.WarnContext(ctx, "remote conversion failed, falling back to local extraction",
				"source", source,
				"error", remoteErr)
		}
	}

	if converted == nil {
		local, localErr := n.local.Extract(ctx, source)
		if localErr != nil {
			if remoteErr != nil {
				return nil, fmt.Errorf("%w: %s: remote: %v; local: %v",
					domain.ErrIngestion, source, remoteErr, localErr)
			}
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrIngestion, source, localErr)
		}
		converted = local
		method = domain.ExtractionLocal
	}

	text := CleanText(converted.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s: no text after extraction", domain.ErrIngestion, source)
	}

	if raw == nil {
		// URL sources have no local bytes; hash the extracted text instead
		// so identical content still maps to the same document identity.
		raw = []byte(text)
	}

	doc, err := domain.NewSourceDocument(source, raw, text, method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrIngestion, source, err)
	}
	doc.PageCount = converted.PageCount

	n.logger.InfoContext(ctx, "document normalized",
		"source", source,
		"method", method,
		"text_length", len(text),
		"pages", converted.PageCount)

	return doc, nil
}

func (n *Normalizer) readRaw(source string) []byte {
	if isURL(source) {
		return nil
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil
	}
	return raw
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// CleanText enforces the output contract: valid UTF-8, no carriage returns,
// no leading/trailing whitespace, at most one blank line between paragraphs.
func CleanText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
