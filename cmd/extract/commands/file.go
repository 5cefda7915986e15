package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salescoach/backend/internal/domain"
	"github.com/salescoach/backend/internal/infrastructure/ingest"
)

var mediaTypeFlag string

var mediaTypes = map[string]domain.MediaType{
	"text":        domain.MediaText,
	"csv":         domain.MediaCSV,
	"spreadsheet": domain.MediaSpreadsheet,
	"docx":        domain.MediaDocument,
	"pdf":         domain.MediaPDF,
	"image":       domain.MediaImage,
}

var fileCmd = &cobra.Command{
	Use:   "file <path> [path...]",
	Short: "Extract vehicle records from local files",
	Long: `Extract vehicle records from brochures and spec sheets on disk.

The media type is inferred from the file extension unless --type is given.
Supported types: text, csv, spreadsheet, docx, pdf, image (requires OCR).
Input files are never modified or removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFile,
}

func init() {
	fileCmd.Flags().StringVarP(&mediaTypeFlag, "type", "t", "", "force the media type for every file")
	rootCmd.AddCommand(fileCmd)
}

// extraction is one printed outcome
type extraction struct {
	File    string                   `json:"file"`
	Result  *domain.ExtractionResult `json:"result,omitempty"`
	Missing []domain.Field           `json:"missing,omitempty"`
	Saved   *domain.CatalogEntry     `json:"saved,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

func runFile(cmd *cobra.Command, args []string) error {
	forced := domain.MediaUnknown
	if mediaTypeFlag != "" {
		t, ok := mediaTypes[strings.ToLower(mediaTypeFlag)]
		if !ok {
			return fmt.Errorf("unknown --type %q", mediaTypeFlag)
		}
		forced = t
	}

	ctx := cmd.Context()
	outputs := make([]extraction, 0, len(args))
	failed := 0

	for _, path := range args {
		doc := domain.RawDocument{
			Path:      path,
			Name:      filepath.Base(path),
			MediaType: forced,
		}
		if doc.MediaType == domain.MediaUnknown {
			doc.MediaType = ingest.DetectMediaType(path, "")
		}

		out := extraction{File: doc.Name}
		result, err := current.upload.ExtractFile(ctx, doc)
		if err != nil {
			failed++
			out.Error = err.Error()
			outputs = append(outputs, out)
			continue
		}
		out.Result = &result
		out.Missing = result.Record.Missing()

		if save {
			entry, err := current.catalog.Create(ctx, result.Record, "")
			if err != nil {
				failed++
				out.Error = fmt.Sprintf("save: %v", err)
			} else {
				out.Saved = &entry
			}
		}
		outputs = append(outputs, out)
	}

	if err := current.print(outputs); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
