package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/couchcryptid/weathercal/internal/observability"
)

// EncodeFunc serializes one calendar. stamp is the report datetime.
type EncodeFunc func(doc domain.CalendarDocument, stamp time.Time) []byte

// Calendar is one rendered calendar ready to be stored.
type Calendar struct {
	Document domain.CalendarDocument
	Body     []byte
}

// SkippedArea records an area that could not be emitted.
type SkippedArea struct {
	PointName string
	Err       error
}

// OfficeOutput is everything produced from one office's report pair.
type OfficeOutput struct {
	Office    string
	Meta      domain.Meta
	Calendars []Calendar
	Skipped   []SkippedArea
}

// ForecastTransformer implements Transformer: it normalizes a report pair
// and renders one calendar per area.
type ForecastTransformer struct {
	emitter *domain.Emitter
	encode  EncodeFunc
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a ForecastTransformer.
func NewTransformer(emitter *domain.Emitter, encode EncodeFunc, logger *slog.Logger, metrics *observability.Metrics) *ForecastTransformer {
	return &ForecastTransformer{
		emitter: emitter,
		encode:  encode,
		logger:  logger,
		metrics: metrics,
	}
}

// Transform renders every area of the pair. A structural mismatch fails the
// whole office; an unknown weather code only skips the affected area.
func (t *ForecastTransformer) Transform(office string, pair domain.ReportPair) (OfficeOutput, error) {
	forecast, err := domain.Normalize(pair)
	if err != nil {
		if errors.Is(err, domain.ErrStructuralMismatch) {
			t.metrics.StructuralMismatches.Inc()
		}
		return OfficeOutput{}, err
	}
	t.metrics.AreasNormalized.Add(float64(len(forecast.Areas)))

	stamp, err := time.Parse(time.RFC3339, forecast.Meta.ReportDatetime)
	if err != nil {
		t.metrics.StructuralMismatches.Inc()
		return OfficeOutput{}, fmt.Errorf("%w: report datetime %q", domain.ErrStructuralMismatch, forecast.Meta.ReportDatetime)
	}

	out := OfficeOutput{Office: office, Meta: forecast.Meta}
	for _, area := range forecast.Areas {
		doc, err := t.emitter.Emit(area)
		if err != nil {
			if !errors.Is(err, domain.ErrLookupMiss) {
				return OfficeOutput{}, err
			}
			t.logger.Warn("area skipped", "office", office, "point", area.PointName, "error", err)
			t.metrics.LookupMisses.Inc()
			out.Skipped = append(out.Skipped, SkippedArea{PointName: area.PointName, Err: err})
			continue
		}
		out.Calendars = append(out.Calendars, Calendar{Document: doc, Body: t.encode(doc, stamp)})
	}
	return out, nil
}
