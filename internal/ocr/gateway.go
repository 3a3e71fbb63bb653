// Package ocr is the text-extraction gateway: it turns stored compliance
// documents (PDFs or images) into raw text by routing pages through one of
// the interchangeable OCR engines.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/complytrack/compliance-tracker/constants"
)

// GatewayConfig configures PDF rasterization.
type GatewayConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit
}

// Gateway routes a document to an OCR engine by media type. Engine
// preference is evaluated once per call: cloud when credentialed, otherwise
// the local engine, otherwise ErrEngineUnavailable.
type Gateway struct {
	cfg    GatewayConfig
	cloud  *VisionEngine
	local  *TesseractEngine
	runner Runner
	logger *slog.Logger
}

func NewGateway(cfg GatewayConfig, cloud *VisionEngine, local *TesseractEngine, logger *slog.Logger) *Gateway {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{cfg: cfg, cloud: cloud, local: local, runner: execRunner{}, logger: logger}
}

// selectEngine applies the preference order for this call.
func (g *Gateway) selectEngine() (TextEngine, error) {
	if g.cloud.Configured() {
		return g.cloud, nil
	}
	if g.local != nil && g.local.Available() {
		return g.local, nil
	}
	return nil, ErrEngineUnavailable
}

// ExtractFile reads a file from disk and extracts its text.
func (g *Gateway) ExtractFile(ctx context.Context, path, mimeType string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return g.ExtractBytes(ctx, b, mimeType)
}

// ExtractBytes extracts text from in-memory document content. PDFs are
// rasterized one image per page and each page is OCR'd independently with a
// page-boundary marker; image types are OCR'd as a single unit.
func (g *Gateway) ExtractBytes(ctx context.Context, content []byte, mimeType string) (string, error) {
	format := constants.MapMimeToFormat(mimeType)
	if format == "" {
		return "", &UnsupportedMediaTypeError{MimeType: mimeType}
	}

	engine, err := g.selectEngine()
	if err != nil {
		return "", err
	}
	g.logger.Debug("ocr extraction start", "engine", engine.Name(), "format", format, "bytes", len(content))

	switch format {
	case constants.PDF:
		return g.extractPDF(ctx, engine, content)
	default:
		return engine.ExtractImage(ctx, content)
	}
}

// extractPDF rasterizes the PDF with pdftoppm and OCRs every page. Pages are
// joined with "--- Page N ---" markers so downstream consumers keep page
// provenance.
func (g *Gateway) extractPDF(ctx context.Context, engine TextEngine, content []byte) (string, error) {
	if _, err := exec.LookPath(g.cfg.Pdftoppm); err != nil {
		return "", &DependencyMissingError{Capability: "pdftoppm (PDF rasterizer)", Cause: err}
	}

	tmpDir, err := os.MkdirTemp("", "ct-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			g.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	src := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(src, content, 0o600); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := g.runner.Run(ctx, g.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", g.cfg.DPI), "-png", src, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 1<<10))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if g.cfg.MaxPages > 0 && len(matches) > g.cfg.MaxPages {
		matches = matches[:g.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no pages")
	}

	pages := make([]string, 0, len(matches))
	for i, img := range matches {
		b, err := os.ReadFile(img)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i+1, err)
		}
		txt, err := engine.ExtractImage(ctx, b)
		if err != nil {
			return "", fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		pages = append(pages, fmt.Sprintf("--- Page %d ---\n%s", i+1, txt))
	}
	return strings.Join(pages, "\n\n"), nil
}
