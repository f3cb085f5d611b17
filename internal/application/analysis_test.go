package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

type analysisFixture struct {
	vision    *fakeVision
	results   *fakeResults
	publisher *fakePublisher
	deps      AnalysisDeps
}

func newAnalysisFixture() *analysisFixture {
	vision, mapper, narrative := successfulStages()
	f := &analysisFixture{
		vision:    vision,
		results:   &fakeResults{},
		publisher: &fakePublisher{},
	}
	f.deps = AnalysisDeps{
		Pipeline:    NewPipeline(vision, mapper, narrative, fixedOptions(nil)),
		Results:     f.results,
		Fetcher:     &fakeFetcher{images: map[string]*port.FetchedImage{frontURL: photo('f', 10)}},
		Highlighter: fakeHighlighter{},
		Publisher:   f.publisher,
	}
	return f
}

func TestAnalysisService_Success(t *testing.T) {
	f := newAnalysisFixture()
	svc := NewAnalysisService(f.deps)

	out, err := svc.Analyze(context.Background(), analysisRequest())
	require.NoError(t, err)

	require.Equal(t, "result-1", out.Result.ResultID)
	require.Equal(t, "https://cdn.example.com/heatmaps/result-1.jpg?sig=1", out.HeatmapURL)
	require.Equal(t, []string{"heatmaps/result-1.jpg"}, f.publisher.keys)
	require.Len(t, f.results.saved, 1)

	stored, err := svc.Result(context.Background(), "result-1")
	require.NoError(t, err)
	require.Equal(t, out.Result, stored)
}

func TestAnalysisService_Validation(t *testing.T) {
	f := newAnalysisFixture()
	svc := NewAnalysisService(f.deps)

	_, err := svc.Analyze(context.Background(), entity.AnalysisRequest{UserID: "u1"})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Analyze(context.Background(), entity.AnalysisRequest{ImageURL: frontURL})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.Zero(t, f.vision.calls.Load())
}

func TestAnalysisService_UnknownAngle(t *testing.T) {
	f := newAnalysisFixture()
	svc := NewAnalysisService(f.deps)

	_, err := svc.Analyze(context.Background(), entity.AnalysisRequest{
		UserID: "u1",
		Images: []entity.ImageReference{
			{URL: frontURL},
			{URL: "https://example.com/back.jpg", Angle: "back"},
		},
	})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.ErrorContains(t, err, `unknown angle "back"`)
	require.Zero(t, f.vision.calls.Load())
}

func TestAnalysisService_Auth(t *testing.T) {
	tests := []struct {
		name string
		auth fakeAuth
		ok   bool
	}{
		{"matching user", fakeAuth{userID: "u1"}, true},
		{"other user", fakeAuth{userID: "u2"}, false},
		{"invalid token", fakeAuth{err: errors.New("token is expired")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnalysisFixture()
			f.deps.Auth = tt.auth
			svc := NewAnalysisService(f.deps)

			req := analysisRequest()
			req.AccessToken = "token"
			_, err := svc.Analyze(context.Background(), req)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.True(t, apperr.IsKind(err, apperr.KindAuth), err)
			require.Zero(t, f.vision.calls.Load())
		})
	}
}

func TestAnalysisService_NoTokenSkipsAuth(t *testing.T) {
	f := newAnalysisFixture()
	f.deps.Auth = fakeAuth{err: errors.New("must not be called")}
	svc := NewAnalysisService(f.deps)

	_, err := svc.Analyze(context.Background(), analysisRequest())
	require.NoError(t, err)
}

func TestAnalysisService_StorageFailureIsFatal(t *testing.T) {
	f := newAnalysisFixture()
	f.results.saveErr = errors.New("connection refused")
	svc := NewAnalysisService(f.deps)

	_, err := svc.Analyze(context.Background(), analysisRequest())
	require.True(t, apperr.IsKind(err, apperr.KindStorage), err)
}

func TestAnalysisService_HeatmapFailureIsNotFatal(t *testing.T) {
	f := newAnalysisFixture()
	f.deps.Highlighter = fakeHighlighter{err: errors.New("decode image")}
	svc := NewAnalysisService(f.deps)

	out, err := svc.Analyze(context.Background(), analysisRequest())
	require.NoError(t, err)
	require.Empty(t, out.HeatmapURL)
	require.Empty(t, f.publisher.keys)
}

func TestAnalysisService_NoMasksNoHeatmap(t *testing.T) {
	f := newAnalysisFixture()
	f.vision.result.Masks = nil
	svc := NewAnalysisService(f.deps)

	out, err := svc.Analyze(context.Background(), analysisRequest())
	require.NoError(t, err)
	require.Empty(t, out.HeatmapURL)
}

func TestAnalysisService_PipelineErrorPassesThrough(t *testing.T) {
	f := newAnalysisFixture()
	f.vision.err = apperr.Configuration("inference.gemini", "GEMINI_API_KEY")
	svc := NewAnalysisService(f.deps)

	_, err := svc.Analyze(context.Background(), analysisRequest())
	require.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	require.Empty(t, f.results.saved)
}
