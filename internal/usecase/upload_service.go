package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/salescoach/backend/internal/domain"
)

// Messages shown in the upload UI for failures that are not network errors
const (
	msgUnsupportedType = "Unsupported file type. Upload a text, CSV, spreadsheet, Word, PDF or image file."
	msgDecodeFailure   = "The file could not be read. It may be damaged or password protected."
	msgCanceled        = "Processing was canceled before this file was reached."
)

// Artifact is one uploaded file waiting on disk for extraction
type Artifact struct {
	Path      string
	Name      string
	MediaType domain.MediaType
}

// UploadService runs the ingestion and extraction pipeline over admin uploads
type UploadService struct {
	ingestor  domain.DocumentIngestor
	extractor *FieldExtractor
	logger    zerolog.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(ingestor domain.DocumentIngestor, extractor *FieldExtractor, logger zerolog.Logger) *UploadService {
	return &UploadService{
		ingestor:  ingestor,
		extractor: extractor,
		logger:    logger.With().Str("component", "upload").Logger(),
	}
}

// ProcessFiles extracts every artifact independently. One failure never affects the
// others, and each artifact's file is removed once it has been processed.
func (s *UploadService) ProcessFiles(ctx context.Context, artifacts []Artifact) domain.ExtractionSummary {
	summary := newSummary()

	for _, a := range artifacts {
		result, err := s.processArtifact(ctx, a)
		if err != nil {
			summary.Errors = append(summary.Errors, domain.ExtractionFailure{File: a.Name, Error: userMessage(err)})
			continue
		}
		summary.Results = append(summary.Results, result)
	}

	s.logger.Info().Int("files", len(artifacts)).Int("extracted", len(summary.Results)).
		Int("failed", len(summary.Errors)).Msg("batch processed")
	return summary
}

func (s *UploadService) processArtifact(ctx context.Context, a Artifact) (domain.ExtractionResult, error) {
	defer func() {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("file", a.Name).Msg("failed to remove uploaded file")
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.ExtractionResult{}, err
	}
	return s.ExtractFile(ctx, domain.RawDocument{Path: a.Path, Name: a.Name, MediaType: a.MediaType})
}

// ProcessURL fetches a dealer webpage and extracts a record from it. Unlike a batch
// upload there is nothing to isolate, so a fetch failure is returned to the caller.
func (s *UploadService) ProcessURL(ctx context.Context, url string) (domain.ExtractionResult, error) {
	result, err := s.ExtractFile(ctx, domain.RawDocument{Path: url, Name: url, MediaType: domain.MediaWebpage})
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("extract %s: %w", url, err)
	}
	return result, nil
}

// ExtractFile ingests and extracts a single document without touching the file afterwards
func (s *UploadService) ExtractFile(ctx context.Context, doc domain.RawDocument) (domain.ExtractionResult, error) {
	ingested, err := s.ingestor.Ingest(ctx, doc)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", doc.Name).Msg("ingestion failed")
		return domain.ExtractionResult{}, err
	}

	return domain.ExtractionResult{
		File:      doc.Name,
		Method:    ingested.Method,
		Corrupted: ingested.Corrupted,
		Record:    s.extractor.Extract(ingested.Text, doc.Name),
	}, nil
}

func newSummary() domain.ExtractionSummary {
	return domain.ExtractionSummary{
		Results: []domain.ExtractionResult{},
		Errors:  []domain.ExtractionFailure{},
	}
}

// userMessage turns a pipeline error into text suitable for the upload UI
func userMessage(err error) string {
	var netErr *domain.NetworkError
	switch {
	case errors.As(err, &netErr):
		return netErr.UserMessage()
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return msgUnsupportedType
	case errors.Is(err, domain.ErrDecodeFailure):
		return msgDecodeFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return msgCanceled
	}
	return err.Error()
}
