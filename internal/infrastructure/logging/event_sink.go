package logging

import (
	"context"
	"log/slog"

	"skin-advisor/internal/domain/port"
)

// EventSink пишет каждый переход конвейера отдельной записью
type EventSink struct {
	logger *slog.Logger
}

// NewEventSink создаёт получатель событий поверх логгера
func NewEventSink(logger *slog.Logger) *EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSink{logger: logger}
}

func (s *EventSink) Emit(ctx context.Context, e port.PipelineEvent) {
	attrs := []slog.Attr{
		slog.String("run_id", e.RunID),
		slog.String("from", string(e.From)),
		slog.String("to", string(e.To)),
	}
	if e.Stage != "" {
		attrs = append(attrs,
			slog.String("stage", string(e.Stage)),
			slog.Int64("duration_ms", e.Duration.Milliseconds()),
		)
	}

	level := slog.LevelDebug
	if e.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	if e.To == port.StateDone || e.To == port.StateLowConfidence {
		level = slog.LevelInfo
	}

	s.logger.LogAttrs(ctx, level, "pipeline transition", attrs...)
}

var _ port.EventSink = (*EventSink)(nil)
