package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Outcome values for AttrOutcome
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// KanbanMetrics records card generation metrics. A nil *KanbanMetrics is valid
// and records nothing.
type KanbanMetrics struct {
	logger *zap.Logger

	cardsRendered      *Counter
	itemsSkipped       *Counter
	imageFallbacks     *Counter
	documentsGenerated *Counter
	lookupDuration     *Histogram
	generationDuration *Histogram
}

// KanbanMetricsConfig holds configuration for kanban metrics.
type KanbanMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewKanbanMetrics creates the kanban instruments on the given meter.
func NewKanbanMetrics(cfg KanbanMetricsConfig) (*KanbanMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	km := &KanbanMetrics{logger: logger}

	var err error
	km.cardsRendered, err = NewCounter(cfg.Meter,
		"kanban_cards_rendered_total",
		"Total number of kanban cards drawn",
		"{cards}",
	)
	if err != nil {
		return nil, err
	}

	km.itemsSkipped, err = NewCounter(cfg.Meter,
		"kanban_items_skipped_total",
		"Total number of item codes skipped because the lookup failed",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	km.imageFallbacks, err = NewCounter(cfg.Meter,
		"kanban_image_fallbacks_total",
		"Total number of cards drawn with the fallback image",
		"{cards}",
	)
	if err != nil {
		return nil, err
	}

	km.documentsGenerated, err = NewCounter(cfg.Meter,
		"kanban_documents_generated_total",
		"Total number of generation runs",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	km.lookupDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "kanban_item_lookup_duration_seconds",
		Description: "Duration of ERP item lookups",
		Unit:        "s",
		Boundaries:  LookupDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	km.generationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "kanban_generation_duration_seconds",
		Description: "Duration of complete generation runs",
		Unit:        "s",
		Boundaries:  GenerationDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return km, nil
}

// RecordCardRendered counts one drawn card.
func (km *KanbanMetrics) RecordCardRendered(ctx context.Context) {
	if km == nil {
		return
	}
	km.cardsRendered.Inc(ctx)
}

// RecordItemSkipped counts one dropped item code.
func (km *KanbanMetrics) RecordItemSkipped(ctx context.Context, reason string) {
	if km == nil {
		return
	}
	km.itemsSkipped.Inc(ctx, AttrReason.String(reason))
}

// RecordImageFallback counts one card drawn with the fallback image.
func (km *KanbanMetrics) RecordImageFallback(ctx context.Context, reason string) {
	if km == nil {
		return
	}
	km.imageFallbacks.Inc(ctx, AttrReason.String(reason))
}

// RecordLookup records the duration and outcome of one item lookup.
func (km *KanbanMetrics) RecordLookup(ctx context.Context, d time.Duration, err error) {
	if km == nil {
		return
	}
	km.lookupDuration.RecordDuration(ctx, d, AttrOutcome.String(outcomeOf(err)))
}

// RecordGeneration records the duration and outcome of one run.
func (km *KanbanMetrics) RecordGeneration(ctx context.Context, source string, d time.Duration, err error) {
	if km == nil {
		return
	}
	outcome := outcomeOf(err)
	km.documentsGenerated.Inc(ctx, AttrSource.String(source), AttrOutcome.String(outcome))
	km.generationDuration.RecordDuration(ctx, d, AttrSource.String(source), AttrOutcome.String(outcome))
	km.logger.Debug("Recorded generation metrics",
		zap.String("source", source),
		zap.String("outcome", outcome),
		zap.Duration("duration", d),
	)
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewKanbanMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
