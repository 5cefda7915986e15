package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/salescoach/backend/internal/domain"
)

// OCRWhitelist is the character set tesseract may emit
const OCRWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,/$₹-:"

// Runner executes an external program and returns its output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// OCRConfig holds tesseract settings
type OCRConfig struct {
	Binary   string // defaults to "tesseract"
	Language string // defaults to "eng"
}

// OCR recognizes text in images with the tesseract binary
type OCR struct {
	cfg    OCRConfig
	runner Runner
}

// NewOCR creates an OCR engine. A nil runner executes the real binary.
func NewOCR(cfg OCRConfig, runner Runner) *OCR {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &OCR{cfg: cfg, runner: runner}
}

// Recognize runs tesseract on the image at path
func (o *OCR) Recognize(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang> -c ...
	args := []string{
		path, "stdout",
		"-l", o.cfg.Language,
		"-c", "tessedit_char_whitelist=" + OCRWhitelist,
		"-c", "preserve_interword_spaces=1",
	}

	out, errb, err := o.runner.Run(ctx, o.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract: %v: %s", domain.ErrDecodeFailure, err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}
