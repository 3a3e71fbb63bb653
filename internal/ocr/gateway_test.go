package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine returns canned text per image content.
type stubEngine struct {
	byContent map[string]string
	err       error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) ExtractImage(_ context.Context, image []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if txt, ok := s.byContent[string(image)]; ok {
		return txt, nil
	}
	return "", fmt.Errorf("unexpected image %q", image)
}

// pageWritingRunner pretends to be pdftoppm: it writes one png per
// configured page under the output prefix it is invoked with.
type pageWritingRunner struct {
	pages []string
	args  []string
	err   error
}

func (r *pageWritingRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.args = append([]string{name}, args...)
	if r.err != nil {
		return nil, []byte("rasterize failed"), r.err
	}
	prefix := args[len(args)-1]
	for i, content := range r.pages {
		if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i+1), []byte(content), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestExtractBytesRejectsUnsupportedMediaType(t *testing.T) {
	g := NewGateway(GatewayConfig{}, nil, nil, nil)

	_, err := g.ExtractBytes(context.Background(), []byte("hello"), "text/plain")

	var unsupported *UnsupportedMediaTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "text/plain", unsupported.MimeType)
	assert.Contains(t, err.Error(), "text/plain")
}

func TestExtractBytesNoEngineAvailable(t *testing.T) {
	g := NewGateway(GatewayConfig{}, nil, nil, nil)

	_, err := g.ExtractBytes(context.Background(), []byte("img"), "image/png")

	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestSelectEnginePrefersCloud(t *testing.T) {
	cloud := NewVisionEngine(VisionConfig{APIKey: "key"})
	local := NewTesseractEngine(TesseractConfig{}, nil)
	g := NewGateway(GatewayConfig{}, cloud, local, nil)

	engine, err := g.selectEngine()

	require.NoError(t, err)
	assert.Equal(t, "google-vision", engine.Name())
}

func TestExtractPDFJoinsPagesWithMarkers(t *testing.T) {
	runner := &pageWritingRunner{pages: []string{"img-one", "img-two", "img-three"}}
	g := &Gateway{
		// The binary only needs to resolve on PATH; the fake runner does
		// the actual work.
		cfg:    GatewayConfig{Pdftoppm: "sh", DPI: 150},
		runner: runner,
		logger: testLogger(),
	}
	engine := &stubEngine{byContent: map[string]string{
		"img-one":   "first page text",
		"img-two":   "second page text",
		"img-three": "third page text",
	}}

	got, err := g.extractPDF(context.Background(), engine, []byte("%PDF-1.4 fake"))

	require.NoError(t, err)
	want := strings.Join([]string{
		"--- Page 1 ---\nfirst page text",
		"--- Page 2 ---\nsecond page text",
		"--- Page 3 ---\nthird page text",
	}, "\n\n")
	assert.Equal(t, want, got)
	assert.Contains(t, runner.args, "-png")
	assert.Contains(t, runner.args, "-r")
	assert.Contains(t, runner.args, "150")
}

func TestExtractPDFHonorsMaxPages(t *testing.T) {
	runner := &pageWritingRunner{pages: []string{"a", "b", "c"}}
	g := &Gateway{
		cfg:    GatewayConfig{Pdftoppm: "sh", DPI: 300, MaxPages: 2},
		runner: runner,
		logger: testLogger(),
	}
	engine := &stubEngine{byContent: map[string]string{"a": "A", "b": "B", "c": "C"}}

	got, err := g.extractPDF(context.Background(), engine, []byte("pdf"))

	require.NoError(t, err)
	assert.Equal(t, "--- Page 1 ---\nA\n\n--- Page 2 ---\nB", got)
}

func TestExtractPDFMissingRasterizer(t *testing.T) {
	g := &Gateway{
		cfg:    GatewayConfig{Pdftoppm: "definitely-not-installed-49812"},
		runner: execRunner{},
		logger: testLogger(),
	}

	_, err := g.extractPDF(context.Background(), &stubEngine{}, []byte("pdf"))

	var missing *DependencyMissingError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Capability, "pdftoppm")
}

func TestExtractPDFPropagatesRasterizeFailure(t *testing.T) {
	runner := &pageWritingRunner{err: errors.New("exit status 1")}
	g := &Gateway{
		cfg:    GatewayConfig{Pdftoppm: "sh"},
		runner: runner,
		logger: testLogger(),
	}

	_, err := g.extractPDF(context.Background(), &stubEngine{}, []byte("pdf"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm")
	assert.Contains(t, err.Error(), "rasterize failed")
}
