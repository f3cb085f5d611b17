package app

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// fakeBackend отвечает заранее заданными функциями
type fakeBackend struct {
	model    string
	readyErr error
	describe func(prompt string, img port.InlineImage) (string, error)
	complete func(prompt string) (string, error)

	describeCalls atomic.Int32
	completeCalls atomic.Int32
}

func (b *fakeBackend) DescribeImage(ctx context.Context, prompt string, img port.InlineImage) (string, error) {
	b.describeCalls.Add(1)
	if b.describe == nil {
		return "", errors.New("describe is not expected")
	}
	return b.describe(prompt, img)
}

func (b *fakeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	b.completeCalls.Add(1)
	if b.complete == nil {
		return "", errors.New("complete is not expected")
	}
	return b.complete(prompt)
}

func (b *fakeBackend) Model() string {
	if b.model == "" {
		return "fake"
	}
	return b.model
}

func (b *fakeBackend) Ready() error { return b.readyErr }

// fakeFetcher отдаёт снимки из карты url -> данные
type fakeFetcher struct {
	mu     sync.Mutex
	images map[string]*port.FetchedImage
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*port.FetchedImage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err := f.errs[url]; err != nil {
		return nil, err
	}
	img, ok := f.images[url]
	if !ok {
		return nil, port.ErrNotFound
	}
	return img, nil
}

// photo снимок из size одинаковых байт tag
func photo(tag byte, size int) *port.FetchedImage {
	return &port.FetchedImage{Data: bytes.Repeat([]byte{tag}, size), ContentType: "image/jpeg"}
}

// fakeVision этап A с фиксированным ответом
type fakeVision struct {
	result *entity.VisionAnalysis
	err    error
	block  bool
	calls  atomic.Int32
}

func (v *fakeVision) Analyze(ctx context.Context, images []entity.ImageReference, user port.UserContext) (*entity.VisionAnalysis, error) {
	v.calls.Add(1)
	if v.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if v.err != nil {
		return nil, v.err
	}
	copied := *v.result
	return &copied, nil
}

func (v *fakeVision) Version() string { return "vision-test" }

type fakeMapper struct {
	result *entity.MappingResult
	err    error
	calls  atomic.Int32
}

func (m *fakeMapper) Map(ctx context.Context, vision *entity.VisionAnalysis, profile entity.UserProfile) (*entity.MappingResult, error) {
	m.calls.Add(1)
	return m.result, m.err
}

func (m *fakeMapper) Version() string { return "map-test" }

type fakeNarrative struct {
	result *entity.NLGResult
	err    error
	calls  atomic.Int32
}

func (n *fakeNarrative) Generate(ctx context.Context, vision *entity.VisionAnalysis, mapping *entity.MappingResult, profile entity.UserProfile) (*entity.NLGResult, error) {
	n.calls.Add(1)
	return n.result, n.err
}

func (n *fakeNarrative) Version() string { return "nlg-test" }

// recordingSink запоминает переходы конвейера
type recordingSink struct {
	mu     sync.Mutex
	events []port.PipelineEvent
}

func (s *recordingSink) Emit(ctx context.Context, e port.PipelineEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) states() []port.PipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]port.PipelineState, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.To)
	}
	return out
}

type fakeResults struct {
	saveErr error
	saved   []*entity.OrchestrationResult
}

func (r *fakeResults) Save(ctx context.Context, result *entity.OrchestrationResult) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeResults) Get(ctx context.Context, id string) (*entity.OrchestrationResult, error) {
	for _, res := range r.saved {
		if res.ResultID == id {
			return res, nil
		}
	}
	return nil, port.ErrNotFound
}

type fakeAuth struct {
	userID string
	err    error
}

func (a fakeAuth) Verify(ctx context.Context, token string) (string, error) {
	return a.userID, a.err
}

type fakeHighlighter struct {
	err error
}

func (h fakeHighlighter) HighlightRegions(imageData []byte, masks []entity.RegionMask) ([]byte, error) {
	if h.err != nil {
		return nil, h.err
	}
	return []byte("highlighted"), nil
}

type fakePublisher struct {
	keys []string
}

func (p *fakePublisher) Publish(ctx context.Context, key string, data []byte, contentType string, ttl time.Duration) (string, error) {
	p.keys = append(p.keys, key)
	return "https://cdn.example.com/" + key + "?sig=1", nil
}

// fixedOptions конвейер с предсказуемыми id и временем
func fixedOptions(events port.EventSink) PipelineOptions {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return PipelineOptions{
		Events: events,
		Now:    func() time.Time { return now },
		NewID:  func() string { return "result-1" },
	}
}

func confidentVision() *entity.VisionAnalysis {
	return &entity.VisionAnalysis{
		Scores:              entity.SkinConditionScores{Pigmentation: 0.6, Redness: 0.4},
		Masks:               []entity.RegionMask{{Label: "pigmentation", X: 10, Y: 10, W: 20, H: 20}},
		Metrics:             entity.VisionMetrics{AreaPctByLabel: map[string]float64{"pigmentation": 0.1}},
		Confidence:          0.85,
		UncertaintyEstimate: 0.15,
		ModelVersion:        "vision-test",
	}
}

// gateFetcher сообщает о каждом начатом Fetch и держит загрузку до
// закрытия release или отмены контекста. Ссылки из open не ждут.
type gateFetcher struct {
	inner   port.ImageFetcher
	open    map[string]bool
	started chan string
	release chan struct{}
}

func newGateFetcher(inner port.ImageFetcher, open ...string) *gateFetcher {
	g := &gateFetcher{
		inner:   inner,
		open:    make(map[string]bool),
		started: make(chan string, 16),
		release: make(chan struct{}),
	}
	for _, url := range open {
		g.open[url] = true
	}
	return g
}

func (g *gateFetcher) Fetch(ctx context.Context, url string) (*port.FetchedImage, error) {
	g.started <- url
	if !g.open[url] {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.inner.Fetch(ctx, url)
}

// next ждёт начала очередной загрузки
func (g *gateFetcher) next() (string, bool) {
	select {
	case url := <-g.started:
		return url, true
	case <-time.After(2 * time.Second):
		return "", false
	}
}
