package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// Пороги конвейера
const (
	ConfidenceGate        = 0.7
	reviewLowConfidence   = 0.3
	reviewHighUncertainty = 0.5

	DefaultStageTimeout = 60 * time.Second
)

var errEmptyStageResult = errors.New("stage returned no result")

// PipelineOptions необязательные параметры конвейера
type PipelineOptions struct {
	StageTimeout time.Duration
	Events       port.EventSink
	Now          func() time.Time
	NewID        func() string
}

// Pipeline последовательно вызывает этапы A, B и C. Хранит только
// неизменяемые зависимости; всё состояние запуска локально для Run.
type Pipeline struct {
	vision    port.VisionExtractor
	mapper    port.TreatmentMapper
	narrative port.NarrativeGenerator
	events    port.EventSink
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

// NewPipeline собирает конвейер
func NewPipeline(vision port.VisionExtractor, mapper port.TreatmentMapper, narrative port.NarrativeGenerator, opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		vision:    vision,
		mapper:    mapper,
		narrative: narrative,
		events:    opts.Events,
		timeout:   opts.StageTimeout,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if p.events == nil {
		p.events = noopEvents{}
	}
	if p.timeout <= 0 {
		p.timeout = DefaultStageTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p
}

// run состояние одного запуска
type run struct {
	id    string
	state port.PipelineState
	meta  entity.StageMetadataSet
}

// Run выполняет конвейер. Возвращает либо полный результат, либо
// *apperr.StageError с именем этапа; частичный результат не отдаётся.
func (p *Pipeline) Run(ctx context.Context, req entity.AnalysisRequest) (*entity.OrchestrationResult, error) {
	req = req.Normalize()
	r := &run{id: p.newID(), state: port.StateStart}

	var vision *entity.VisionAnalysis
	p.transition(ctx, r, port.StateStageA, "", 0, nil)
	err := p.runStage(ctx, r, entity.StageA, func(ctx context.Context) (string, error) {
		var err error
		vision, err = p.vision.Analyze(ctx, req.Images, port.UserContext{
			UserID:  req.UserID,
			Profile: req.Profile,
			Meta:    req.Meta,
		})
		if err == nil && vision == nil {
			err = errEmptyStageResult
		}
		return p.vision.Version(), err
	})
	if err != nil {
		return nil, err
	}

	p.transition(ctx, r, port.StateConfidenceGate, entity.StageA, r.meta.StageA.Duration, nil)

	var (
		mapping *entity.MappingResult
		nlg     *entity.NLGResult
	)
	if vision.Confidence < ConfidenceGate {
		p.transition(ctx, r, port.StateLowConfidence, "", 0, nil)
		mapping = skippedMapping()
		nlg = retakeNarrative(vision.Confidence)
		r.meta.StageB = entity.StageMetadata{VersionTag: skippedStageTag}
		r.meta.StageC = entity.StageMetadata{VersionTag: templateStageTag}
		p.transition(ctx, r, port.StateAssemble, "", 0, nil)
	} else {
		p.transition(ctx, r, port.StateStageB, "", 0, nil)
		err = p.runStage(ctx, r, entity.StageB, func(ctx context.Context) (string, error) {
			var err error
			mapping, err = p.mapper.Map(ctx, vision, req.Profile)
			if err == nil && mapping == nil {
				err = errEmptyStageResult
			}
			return versionOf(mapping, p.mapper.Version()), err
		})
		if err != nil {
			return nil, err
		}

		p.transition(ctx, r, port.StateStageC, entity.StageB, r.meta.StageB.Duration, nil)
		err = p.runStage(ctx, r, entity.StageC, func(ctx context.Context) (string, error) {
			var err error
			nlg, err = p.narrative.Generate(ctx, vision, mapping, req.Profile)
			if err == nil && nlg == nil {
				err = errEmptyStageResult
			}
			version := p.narrative.Version()
			if nlg != nil && nlg.NLGVersion != "" {
				version = nlg.NLGVersion
			}
			return version, err
		})
		if err != nil {
			return nil, err
		}
		p.transition(ctx, r, port.StateAssemble, entity.StageC, r.meta.StageC.Duration, nil)
	}

	result := &entity.OrchestrationResult{
		ResultID:      p.newID(),
		UserID:        req.UserID,
		Analysis:      *vision,
		Mapping:       *mapping,
		NLG:           *nlg,
		ReviewNeeded:  reviewNeeded(vision, mapping, r.meta),
		StageMetadata: r.meta,
		CreatedAt:     p.now().UTC(),
	}
	p.transition(ctx, r, port.StateDone, "", 0, nil)

	return result, nil
}

// runStage вызывает этап с таймаутом, записывает длительность и исход
// в метаданные этапа и при сбое переводит запуск в failed.
func (p *Pipeline) runStage(ctx context.Context, r *run, stage entity.Stage, fn func(context.Context) (string, error)) error {
	stageCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	version, err := fn(stageCtx)
	duration := p.now().Sub(start)

	meta := r.meta.For(stage)
	meta.Duration = duration
	if err == nil {
		meta.VersionTag = version
		return nil
	}

	err = apperr.Wrap(apperr.KindUpstream, string(stage), stage.Title(), err)
	meta.Error = err.Error()
	p.transition(ctx, r, port.StateFailed, stage, duration, err)

	return &apperr.StageError{Stage: stage, Metadata: r.meta, Err: err}
}

func (p *Pipeline) transition(ctx context.Context, r *run, to port.PipelineState, stage entity.Stage, duration time.Duration, err error) {
	p.events.Emit(ctx, port.PipelineEvent{
		RunID:    r.id,
		From:     r.state,
		To:       to,
		Stage:    stage,
		Duration: duration,
		Err:      err,
	})
	r.state = to
}

// reviewNeeded нужен ли просмотр результата человеком
func reviewNeeded(vision *entity.VisionAnalysis, mapping *entity.MappingResult, meta entity.StageMetadataSet) bool {
	return vision.Confidence < reviewLowConfidence ||
		vision.UncertaintyEstimate > reviewHighUncertainty ||
		mapping.NeedsMedicalClearance ||
		meta.HasError()
}

func versionOf(mapping *entity.MappingResult, fallback string) string {
	if mapping != nil && mapping.MappingVersion != "" {
		return mapping.MappingVersion
	}
	return fallback
}

type noopEvents struct{}

func (noopEvents) Emit(context.Context, port.PipelineEvent) {}
