package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Binidu01/video-fetcher/internal/aggregate"
	"github.com/Binidu01/video-fetcher/internal/config"
	"github.com/Binidu01/video-fetcher/internal/detect"
	"github.com/Binidu01/video-fetcher/internal/fetch"
)

type stubFetcher struct {
	result *aggregate.Result
	err    error
}

func (f *stubFetcher) Run(ctx context.Context, rawURL string) (*aggregate.Result, error) {
	return f.result, f.err
}

func newTestServer(t *testing.T, fetcher Fetcher, apiKey string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		outputDir: t.TempDir(),
		apiKey:    apiKey,
		fetcher:   fetcher,
		cfg:       config.DefaultConfig(),
		logger:    zap.NewNop(),
	}
	// Workers stay stopped so queued jobs keep their initial status.
	s.jobQueue = NewJobQueue(1, func(ctx context.Context, url, filename string, progressFn func(downloaded, total int64)) (string, error) {
		return "", nil
	}, nil, zap.NewNop())
	return s
}

func doRequest(t *testing.T, s *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.buildEngine().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) (int, map[string]any, string) {
	t.Helper()

	var resp struct {
		Code    int            `json:"code"`
		Data    map[string]any `json:"data"`
		Message string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Code, resp.Data, resp.Message
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "")

	rec := doRequest(t, s, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	code, data, _ := decodeResponse(t, rec)
	assert.Equal(t, 200, code)
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, data["version"])
}

func TestHandleFetchSuccess(t *testing.T) {
	result := &aggregate.Result{
		URL: "https://example.com/page",
		Videos: []detect.Candidate{
			{URL: "https://example.com/movie.mp4", Title: "Movie", MediaType: "direct", Methods: detect.MethodTagScan},
		},
		MethodsUsed: []string{"extraction_library", "tag_scan", "pattern_scan"},
	}
	s := newTestServer(t, &stubFetcher{result: result}, "")

	rec := doRequest(t, s, http.MethodPost, "/api/fetch", gin.H{"url": "https://example.com/page"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	code, data, msg := decodeResponse(t, rec)
	assert.Equal(t, 200, code)
	assert.Equal(t, "1 videos found", msg)

	videos, ok := data["videos"].([]any)
	require.True(t, ok)
	require.Len(t, videos, 1)
	video := videos[0].(map[string]any)
	assert.Equal(t, "https://example.com/movie.mp4", video["url"])
	assert.Equal(t, "tag_scan", video["method"])
}

func TestHandleFetchMissingURL(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "")

	rec := doRequest(t, s, http.MethodPost, "/api/fetch", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFetchInvalidURL(t *testing.T) {
	s := newTestServer(t, &stubFetcher{err: fetch.ErrInvalidURL}, "")

	rec := doRequest(t, s, http.MethodPost, "/api/fetch", gin.H{"url": "not-a-url"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFetchUpstreamError(t *testing.T) {
	fetchErr := &fetch.Error{URL: "https://example.com/page", StatusCode: http.StatusForbidden}
	s := newTestServer(t, &stubFetcher{err: fetchErr}, "")

	rec := doRequest(t, s, http.MethodPost, "/api/fetch", gin.H{"url": "https://example.com/page"}, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleDownloadAndStatus(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "")

	rec := doRequest(t, s, http.MethodPost, "/api/download", gin.H{"url": "https://example.com/movie.mp4"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, data, _ := decodeResponse(t, rec)
	id, ok := data["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	assert.Equal(t, string(JobStatusQueued), data["status"])

	rec = doRequest(t, s, http.MethodGet, "/api/status/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data, msg := decodeResponse(t, rec)
	assert.Equal(t, "queued", msg)
	assert.Equal(t, "https://example.com/movie.mp4", data["url"])

	rec = doRequest(t, s, http.MethodGet, "/api/status/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDownloadRejectsInvalidURL(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "")

	rec := doRequest(t, s, http.MethodPost, "/api/download", gin.H{"url": "ftp://example.com/movie.mp4"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleJobsLifecycle(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "")

	job := s.jobQueue.AddJob("https://example.com/a.mp4", "")

	rec := doRequest(t, s, http.MethodGet, "/api/jobs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data, _ := decodeResponse(t, rec)
	jobs, ok := data["jobs"].([]any)
	require.True(t, ok)
	assert.Len(t, jobs, 1)

	// Still queued, so DELETE cancels it
	rec = doRequest(t, s, http.MethodDelete, "/api/jobs/"+job.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, _, msg := decodeResponse(t, rec)
	assert.Equal(t, "job cancelled", msg)

	rec = doRequest(t, s, http.MethodDelete, "/api/jobs/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/jobs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "secret")

	rec := doRequest(t, s, http.MethodGet, "/api/jobs", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/jobs", nil, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/jobs", nil, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open
	rec = doRequest(t, s, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownAPIRoute(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "")

	rec := doRequest(t, s, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServesEmbeddedUI(t *testing.T) {
	s := newTestServer(t, &stubFetcher{}, "")

	rec := doRequest(t, s, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Video Fetcher")
}
