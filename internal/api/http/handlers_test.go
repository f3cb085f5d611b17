package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

type fakeAnalyzer struct {
	out     *entity.AnalysisOutput
	err     error
	lastReq entity.AnalysisRequest
	results map[string]*entity.OrchestrationResult
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.AnalysisOutput, error) {
	a.lastReq = req
	return a.out, a.err
}

func (a *fakeAnalyzer) Result(ctx context.Context, id string) (*entity.OrchestrationResult, error) {
	if r, ok := a.results[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("result %q: %w", id, port.ErrNotFound)
}

func newTestEngine(a *fakeAnalyzer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return Build(Options{Analyzer: a, Components: map[string]string{"stage_a": "vision-v1-test"}})
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string, header http.Header) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w.Code, decoded
}

func sampleResult() *entity.OrchestrationResult {
	return &entity.OrchestrationResult{
		ResultID:     "result-1",
		Analysis:     entity.VisionAnalysis{Confidence: 0.85},
		Mapping:      entity.MappingResult{TreatmentCandidates: []entity.TreatmentCandidate{}, MappingVersion: "map-v1-rules", AppliedRules: []string{}},
		NLG:          entity.NLGResult{Headline: "h"},
		ReviewNeeded: true,
	}
}

func TestHealth(t *testing.T) {
	code, body := doRequest(t, newTestEngine(&fakeAnalyzer{}), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, map[string]any{"stage_a": "vision-v1-test"}, body["components"])
}

func TestAnalyze_Success(t *testing.T) {
	a := &fakeAnalyzer{out: &entity.AnalysisOutput{Result: sampleResult(), HeatmapURL: "https://cdn/h.jpg"}}
	engine := newTestEngine(a)

	code, body := doRequest(t, engine, http.MethodPost, "/analyze",
		`{"image_url": "https://cdn.example.com/face.jpg", "user_id": "u1", "user_profile": {"age": 30}}`,
		http.Header{"Authorization": {"Bearer tok"}})

	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "success", body["status"])
	require.Equal(t, "result-1", body["result_id"])
	require.Equal(t, true, body["review_needed"])
	require.Equal(t, "https://cdn/h.jpg", body["heatmap_signed_url"])
	require.Contains(t, body, "stage_metadata")

	require.Equal(t, "https://cdn.example.com/face.jpg", a.lastReq.ImageURL)
	require.Equal(t, "tok", a.lastReq.AccessToken)
	require.Equal(t, 30, *a.lastReq.Profile.Age)
}

func TestAnalyze_BadJSON(t *testing.T) {
	code, body := doRequest(t, newTestEngine(&fakeAnalyzer{}), http.MethodPost, "/analyze", `{"images": 5`, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "error", body["status"])
	require.Equal(t, "validation", body["error_type"])
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	meta := entity.StageMetadataSet{StageA: entity.StageMetadata{Error: "GEMINI_API_KEY is not set"}}
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
		stage  string
	}{
		{"validation", apperr.New(apperr.KindValidation, "op", "images or image_url is required"), http.StatusBadRequest, "validation", ""},
		{"auth", apperr.New(apperr.KindAuth, "op", "authentication failed"), http.StatusUnauthorized, "auth", ""},
		{
			"configuration in stage",
			&apperr.StageError{Stage: entity.StageA, Metadata: meta, Err: apperr.Configuration("inference.gemini", "GEMINI_API_KEY")},
			http.StatusServiceUnavailable, "configuration", "stage_a",
		},
		{"upstream", apperr.Wrap(apperr.KindUpstream, "op", "backend", errors.New("503")), http.StatusBadGateway, "upstream", ""},
		{"storage", apperr.Wrap(apperr.KindStorage, "op", "save result", errors.New("down")), http.StatusInternalServerError, "storage", ""},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "internal", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(&fakeAnalyzer{err: tt.err})
			code, body := doRequest(t, engine, http.MethodPost, "/analyze", `{"image_url": "https://x/f.jpg", "user_id": "u1"}`, nil)

			require.Equal(t, tt.status, code)
			require.Equal(t, "error", body["status"])
			require.Equal(t, tt.kind, body["error_type"])
			if tt.stage != "" {
				require.Equal(t, tt.stage, body["stage"])
				require.Contains(t, body["error"], "GEMINI_API_KEY")
				require.Contains(t, body, "stage_metadata")
			} else {
				require.NotContains(t, body, "stage")
			}
		})
	}
}

func TestResult(t *testing.T) {
	engine := newTestEngine(&fakeAnalyzer{results: map[string]*entity.OrchestrationResult{"result-1": sampleResult()}})

	code, body := doRequest(t, engine, http.MethodGet, "/analyze/results/result-1", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "result-1", body["result"].(map[string]any)["result_id"])

	code, body = doRequest(t, engine, http.MethodGet, "/analyze/results/missing", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "not_found", body["error_type"])
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Empty(t, bearerToken("Basic abc"))
	require.Empty(t, bearerToken(""))
}
