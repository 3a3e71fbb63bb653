package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultVisionEndpoint = "https://vision.googleapis.com"

// VisionConfig configures the Google Cloud Vision OCR engine.
type VisionConfig struct {
	APIKey   string // empty disables the engine
	Endpoint string // default https://vision.googleapis.com
	Timeout  time.Duration
}

// VisionEngine calls the images:annotate REST endpoint with
// DOCUMENT_TEXT_DETECTION, which is tuned for dense document text.
type VisionEngine struct {
	cfg        VisionConfig
	httpClient *http.Client
}

func NewVisionEngine(cfg VisionConfig) *VisionEngine {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultVisionEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &VisionEngine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *VisionEngine) Name() string { return "google-vision" }

// Configured reports whether the engine is credentialed.
func (e *VisionEngine) Configured() bool {
	return e != nil && e.cfg.APIKey != ""
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionAnnotateItem struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionRequest struct {
	Requests []visionAnnotateItem `json:"requests"`
}

type visionResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// ExtractImage returns the full-document text annotation for the image, or
// an empty string when the engine finds no text.
func (e *VisionEngine) ExtractImage(ctx context.Context, image []byte) (string, error) {
	if !e.Configured() {
		return "", &DependencyMissingError{Capability: "Google Vision API key (cloud OCR engine)"}
	}

	reqBody := visionRequest{
		Requests: []visionAnnotateItem{{
			Image:    visionImage{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []visionFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal vision request: %w", err)
	}

	url := strings.TrimRight(e.cfg.Endpoint, "/") + "/v1/images:annotate?key=" + e.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read vision response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("vision status %d: %s", resp.StatusCode, truncate(string(raw), 1<<10))
	}

	var vr visionResponse
	if err := json.Unmarshal(raw, &vr); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(vr.Responses) == 0 {
		return "", nil
	}
	r0 := vr.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision api error: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil {
		return "", nil
	}
	return r0.FullTextAnnotation.Text, nil
}

var _ TextEngine = (*VisionEngine)(nil)
