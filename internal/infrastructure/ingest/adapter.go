// Package ingest turns uploaded artifacts and webpages into raw text for the field extractor.
package ingest

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/salescoach/backend/internal/domain"
)

// Extraction methods reported back to callers
const (
	MethodText        = "text"
	MethodCSV         = "csv"
	MethodSpreadsheet = "spreadsheet"
	MethodDocument    = "docx"
	MethodPDF         = "pdf"
	MethodOCR         = "ocr"
	MethodWebpage     = "webpage"
)

// Adapter dispatches a RawDocument to the decoder for its media type
type Adapter struct {
	ocr     *OCR
	fetcher *WebFetcher
	logger  zerolog.Logger
}

// NewAdapter creates an adapter. A nil fetcher disables webpage ingestion.
func NewAdapter(ocr *OCR, fetcher *WebFetcher, logger zerolog.Logger) *Adapter {
	return &Adapter{
		ocr:     ocr,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// Ingest returns the raw text of doc. Unknown media types fail with ErrUnsupportedMediaType
// before any decoding happens.
func (a *Adapter) Ingest(ctx context.Context, doc domain.RawDocument) (domain.IngestedText, error) {
	mediaType := doc.MediaType
	if mediaType == domain.MediaUnknown {
		mediaType = DetectMediaType(doc.Name, "")
	}

	log := a.logger.With().Str("file", doc.Name).Str("media_type", string(mediaType)).Logger()
	log.Debug().Msg("ingesting document")

	var (
		text   string
		method string
		err    error
	)

	switch mediaType {
	case domain.MediaText:
		text, err = readText(doc.Path)
		method = MethodText
	case domain.MediaCSV:
		text, err = readText(doc.Path)
		method = MethodCSV
	case domain.MediaSpreadsheet:
		text, err = readSpreadsheet(doc.Path)
		method = MethodSpreadsheet
	case domain.MediaDocument:
		text, err = readDocx(doc.Path)
		method = MethodDocument
	case domain.MediaPDF:
		text, err = readPDF(doc.Path)
		method = MethodPDF
	case domain.MediaImage:
		if a.ocr == nil {
			return domain.IngestedText{}, fmt.Errorf("%w: OCR is not configured", domain.ErrUnsupportedMediaType)
		}
		text, err = a.ocr.Recognize(ctx, doc.Path)
		if err != nil {
			log.Error().Err(err).Msg("ocr failed")
			return domain.IngestedText{}, err
		}
		corrupted := IsCorrupted(text)
		if corrupted {
			log.Warn().Int("length", len(text)).Msg("ocr output looks corrupted, extracting anyway")
		}
		return domain.IngestedText{Text: text, Method: MethodOCR, Corrupted: corrupted}, nil
	case domain.MediaWebpage:
		if a.fetcher == nil {
			return domain.IngestedText{}, fmt.Errorf("%w: webpage fetching is disabled", domain.ErrUnsupportedMediaType)
		}
		text, err = a.fetcher.Fetch(ctx, doc.Path)
		if err != nil {
			log.Error().Err(err).Msg("webpage fetch failed")
			return domain.IngestedText{}, err
		}
		return domain.IngestedText{Text: text, Method: MethodWebpage}, nil
	default:
		return domain.IngestedText{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedMediaType, doc.Name)
	}

	if err != nil {
		log.Error().Err(err).Msg("decode failed")
		return domain.IngestedText{}, fmt.Errorf("%w: %s: %v", domain.ErrDecodeFailure, doc.Name, err)
	}

	log.Debug().Str("method", method).Int("length", len(text)).Msg("document ingested")
	return domain.IngestedText{Text: text, Method: method}, nil
}

var extensionTypes = map[string]domain.MediaType{
	".txt":  domain.MediaText,
	".text": domain.MediaText,
	".md":   domain.MediaText,
	".csv":  domain.MediaCSV,
	".xlsx": domain.MediaSpreadsheet,
	".xlsm": domain.MediaSpreadsheet,
	".docx": domain.MediaDocument,
	".pdf":  domain.MediaPDF,
	".png":  domain.MediaImage,
	".jpg":  domain.MediaImage,
	".jpeg": domain.MediaImage,
	".bmp":  domain.MediaImage,
	".gif":  domain.MediaImage,
	".tif":  domain.MediaImage,
	".tiff": domain.MediaImage,
	".webp": domain.MediaImage,
}

var contentTypes = map[string]domain.MediaType{
	"text/plain":      domain.MediaText,
	"text/markdown":   domain.MediaText,
	"text/csv":        domain.MediaCSV,
	"application/csv": domain.MediaCSV,
	"application/pdf": domain.MediaPDF,

	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       domain.MediaSpreadsheet,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.MediaDocument,
}

// DetectMediaType infers the media type from the file extension, falling back to the
// declared content type. It returns MediaUnknown when neither is recognized.
func DetectMediaType(filename, contentType string) domain.MediaType {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}

	if contentType == "" {
		return domain.MediaUnknown
	}
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return domain.MediaUnknown
	}
	if t, ok := contentTypes[base]; ok {
		return t
	}
	if strings.HasPrefix(base, "image/") {
		return domain.MediaImage
	}
	return domain.MediaUnknown
}
