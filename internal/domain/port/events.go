package port

import (
	"context"
	"time"

	"skin-advisor/internal/domain/entity"
)

// PipelineState состояние конвейера
type PipelineState string

const (
	StateStart          PipelineState = "start"
	StateStageA         PipelineState = "stage_a"
	StateConfidenceGate PipelineState = "confidence_gate"
	StateLowConfidence  PipelineState = "low_confidence"
	StateStageB         PipelineState = "stage_b"
	StateStageC         PipelineState = "stage_c"
	StateAssemble       PipelineState = "assemble"
	StateDone           PipelineState = "done"
	StateFailed         PipelineState = "failed"
)

// PipelineEvent переход конвейера из одного состояния в другое
type PipelineEvent struct {
	RunID    string
	From     PipelineState
	To       PipelineState
	Stage    entity.Stage
	Duration time.Duration
	Err      error
}

// EventSink получатель событий конвейера
type EventSink interface {
	Emit(ctx context.Context, event PipelineEvent)
}
