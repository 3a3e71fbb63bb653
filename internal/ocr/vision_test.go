package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisionConfigured(t *testing.T) {
	var nilEngine *VisionEngine
	assert.False(t, nilEngine.Configured())
	assert.False(t, NewVisionEngine(VisionConfig{}).Configured())
	assert.True(t, NewVisionEngine(VisionConfig{APIKey: "k"}).Configured())
}

func TestVisionExtractImage(t *testing.T) {
	image := []byte("fake png bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req visionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Requests[0].Image.Content)
		require.Len(t, req.Requests[0].Features, 1)
		assert.Equal(t, "DOCUMENT_TEXT_DETECTION", req.Requests[0].Features[0].Type)

		_, _ = w.Write([]byte(`{"responses":[{"fullTextAnnotation":{"text":"HEALTH PERMIT\nNo. HP-42"}}]}`))
	}))
	defer srv.Close()

	e := NewVisionEngine(VisionConfig{APIKey: "secret", Endpoint: srv.URL})

	got, err := e.ExtractImage(context.Background(), image)

	require.NoError(t, err)
	assert.Equal(t, "HEALTH PERMIT\nNo. HP-42", got)
}

func TestVisionExtractImageNoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{}]}`))
	}))
	defer srv.Close()

	e := NewVisionEngine(VisionConfig{APIKey: "k", Endpoint: srv.URL})

	got, err := e.ExtractImage(context.Background(), []byte("img"))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVisionExtractImageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"error":{"message":"invalid image"}}]}`))
	}))
	defer srv.Close()

	e := NewVisionEngine(VisionConfig{APIKey: "k", Endpoint: srv.URL})

	_, err := e.ExtractImage(context.Background(), []byte("img"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid image")
}

func TestVisionExtractImageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewVisionEngine(VisionConfig{APIKey: "k", Endpoint: srv.URL})

	_, err := e.ExtractImage(context.Background(), []byte("img"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
