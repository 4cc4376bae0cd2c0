package service

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/alexanderramin/learnpath/internal/logger"
)

// UseCaseEvent is one finished run of a progress or certificate use case.
type UseCaseEvent struct {
	Name      string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
	Fields    map[string]any
}

func (e UseCaseEvent) Success() bool { return e.Err == nil }

type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

// logUseCaseObserver logs successes at info and failures at error. Fields
// are emitted in key order so log lines diff cleanly.
type logUseCaseObserver struct {
	log *logger.Logger
}

func NewLogUseCaseObserver(log *logger.Logger) UseCaseObserver {
	if log == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{log: log}
}

func (o *logUseCaseObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	kv := []any{"use_case", event.Name, "duration_ms", event.Duration.Milliseconds(), "success", event.Success()}
	for _, k := range slices.Sorted(maps.Keys(event.Fields)) {
		kv = append(kv, k, event.Fields[k])
	}
	if event.Err != nil {
		o.log.Error("use case failed", append(kv, "error", event.Err.Error())...)
		return
	}
	o.log.Info("use case finished", kv...)
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	if i := slices.IndexFunc(observers, func(o UseCaseObserver) bool { return o != nil }); i >= 0 {
		return observers[i]
	}
	return NoopUseCaseObserver{}
}

// observe reports one use-case run. Defer it with a pointer to the named
// error result.
func observe(ctx context.Context, obs UseCaseObserver, name string, startedAt time.Time, fields map[string]any, err *error) {
	obs.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Err:       *err,
		Fields:    fields,
	})
}
