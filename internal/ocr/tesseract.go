package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// TesseractConfig configures the local OCR engine.
type TesseractConfig struct {
	Binary string // binary name or absolute path; if empty -> "tesseract"
	Lang   string // default "eng"

	// Compliance documents are usually dense single-column text, so we run
	// LSTM-only recognition over one uniform block instead of full page
	// segmentation.
	OEM int // default 1 (LSTM only)
	PSM int // default 6 (single uniform block)
}

// TesseractEngine shells out to the tesseract binary. Availability of the
// binary is probed once and cached.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner Runner

	probeOnce sync.Once
	probeErr  error
}

func NewTesseractEngine(cfg TesseractConfig, runner Runner) *TesseractEngine {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.OEM == 0 {
		cfg.OEM = 1
	}
	if cfg.PSM == 0 {
		cfg.PSM = 6
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &TesseractEngine{cfg: cfg, runner: runner}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Available reports whether the tesseract binary can be found on PATH.
func (e *TesseractEngine) Available() bool {
	e.probeOnce.Do(func() {
		_, e.probeErr = exec.LookPath(e.cfg.Binary)
	})
	return e.probeErr == nil
}

// ExtractImage writes the image to a temp file and runs
// tesseract <file> stdout -l <lang> --oem <oem> --psm <psm>.
// Output is trimmed of leading/trailing whitespace.
func (e *TesseractEngine) ExtractImage(ctx context.Context, image []byte) (string, error) {
	if !e.Available() {
		return "", &DependencyMissingError{Capability: "tesseract (local OCR engine)", Cause: e.probeErr}
	}

	tmp, err := os.CreateTemp("", "ct-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp image: %w", err)
	}

	args := []string{
		tmp.Name(), "stdout",
		"-l", e.cfg.Lang,
		"--oem", fmt.Sprintf("%d", e.cfg.OEM),
		"--psm", fmt.Sprintf("%d", e.cfg.PSM),
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 1<<10))
	}
	return strings.TrimSpace(string(out)), nil
}

var _ TextEngine = (*TesseractEngine)(nil)
