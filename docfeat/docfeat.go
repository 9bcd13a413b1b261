// Package docfeat turns an uploaded coursework document into a normalized
// feature set for rule checking.
//
// Supported formats:
//   - .docx: Microsoft Word (archive/zip over word/document.xml)
//   - .pdf: glyph-level content stream interpretation (pure Go)
//
// Both strategies are heuristic: headings, margins, line spacing and the
// introduction body are recovered from signals neither format exposes
// directly. Extraction of the same bytes is deterministic.
//
// Usage:
//
//	ex := docfeat.New(docfeat.Config{})
//	features, err := ex.Extract(ctx, "/path/to/work.docx")
package docfeat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for any extension other than .docx/.pdf.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ExtractionError wraps a failure to open or parse a document. The report
// builder converts it into a critical result instead of failing the check.
type ExtractionError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor parses document files into DocumentFeatures.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor with the given configuration.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// Detect returns the document format based on file extension.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return FormatDocx, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Extract parses a document and returns its feature set.
// Returns ErrUnsupportedFormat for unknown extensions and *ExtractionError
// when the file cannot be opened or parsed.
func (e *Extractor) Extract(ctx context.Context, path string) (*DocumentFeatures, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Format: format, Err: err}
	}
	if info.Size() > e.cfg.MaxFileSize {
		return nil, &ExtractionError{Path: path, Format: format,
			Err: fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.cfg.MaxFileSize)}
	}

	e.logger.Debug("extracting document", "path", path, "format", format)

	var features *DocumentFeatures
	switch format {
	case FormatDocx:
		features, err = extractDocx(path, e.cfg.Heuristics)
	case FormatPDF:
		features, err = extractPDF(ctx, path, e.cfg.Heuristics)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ExtractionError{Path: path, Format: format, Err: err}
	}

	e.logger.Debug("extraction complete",
		"path", path,
		"elements", len(features.RequiredElements),
		"words", features.WordCount,
		"pages", features.PageCount)

	return features, nil
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{"docx", "pdf"}
}
