package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/couchcryptid/weathercal/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned by RunOnce while another run is active.
var ErrRunInProgress = errors.New("run already in progress")

// Source lists forecast offices and fetches their report pairs.
type Source interface {
	ListOffices(ctx context.Context) ([]string, error)
	FetchReportPair(ctx context.Context, office string) (domain.ReportPair, error)
}

// Transformer renders one office's report pair.
type Transformer interface {
	Transform(office string, pair domain.ReportPair) (OfficeOutput, error)
}

// Store writes one published file.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// Notifier announces published calendars.
type Notifier interface {
	Publish(ctx context.Context, pubs []domain.Publication) error
}

// Options tunes a Pipeline.
type Options struct {
	Concurrency int
	SkipOffices []string
	// PublicURL is the absolute base of the published files; it enables
	// webcal links on the index page.
	PublicURL           string
	CalendarContentType string
}

// Result summarizes a successful run.
type Result struct {
	Status     string   `json:"status"`
	PointNames []string `json:"point_names"`
	Offices    int      `json:"offices"`
	Skipped    []string `json:"skipped,omitempty"`
}

// Pipeline fetches every office, renders calendars, and publishes them.
type Pipeline struct {
	source      Source
	transformer Transformer
	store       Store
	notifier    Notifier
	opts        Options
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	running     atomic.Bool
}

// New creates a Pipeline. notifier may be nil to disable notifications.
func New(src Source, t Transformer, store Store, notifier Notifier, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CalendarContentType == "" {
		opts.CalendarContentType = "text/calendar; charset=utf-8"
	}
	return &Pipeline{
		source:      src,
		transformer: t,
		store:       store,
		notifier:    notifier,
		opts:        opts,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful run yet")
	}
	return nil
}

// RunOnce performs one complete update. Offices are fetched and rendered
// concurrently; nothing is stored unless every office succeeds.
func (p *Pipeline) RunOnce(ctx context.Context) (Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Result{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := p.clock.Now()

	res, err := p.run(ctx)
	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		p.logger.Error("run failed", "error", err)
		return Result{}, err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.ready.Store(true)
	p.logger.Info("run complete", "offices", res.Offices, "calendars", len(res.PointNames), "skipped", len(res.Skipped))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context) (Result, error) {
	offices, err := p.source.ListOffices(ctx)
	if err != nil {
		return Result{}, err
	}
	offices = slices.DeleteFunc(slices.Clone(offices), func(code string) bool {
		return slices.Contains(p.opts.SkipOffices, code)
	})
	slices.Sort(offices)
	p.logger.Info("run started", "offices", len(offices))

	outputs, err := p.collect(ctx, offices)
	if err != nil {
		return Result{}, err
	}

	calendars, skipped := p.dedupe(outputs)
	if err := p.publish(ctx, calendars); err != nil {
		return Result{}, err
	}
	if err := p.publishIndex(ctx, calendars); err != nil {
		return Result{}, err
	}
	p.notify(ctx, calendars)

	names := make([]string, len(calendars))
	for i, c := range calendars {
		names[i] = c.Document.PointName
	}
	return Result{Status: "success", PointNames: names, Offices: len(offices), Skipped: skipped}, nil
}

// collect fetches and renders all offices. The first failure cancels the rest.
func (p *Pipeline) collect(ctx context.Context, offices []string) ([]OfficeOutput, error) {
	outputs := make([]OfficeOutput, len(offices))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, office := range offices {
		g.Go(func() error {
			pair, err := p.source.FetchReportPair(gCtx, office)
			if err != nil {
				return err
			}
			out, err := p.transformer.Transform(office, pair)
			if err != nil {
				return fmt.Errorf("office %s: %w", office, err)
			}
			p.logger.Debug("office rendered", "office", office, "calendars", len(out.Calendars), "skipped", len(out.Skipped))
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

type publishedCalendar struct {
	Calendar
	Office string
	Meta   domain.Meta
}

// dedupe flattens outputs in office order. A point published by two offices
// keeps the first occurrence, since both would write the same file names.
func (p *Pipeline) dedupe(outputs []OfficeOutput) ([]publishedCalendar, []string) {
	var (
		calendars []publishedCalendar
		skipped   []string
		seen      = make(map[string]string)
	)
	for _, out := range outputs {
		for _, s := range out.Skipped {
			skipped = append(skipped, s.PointName)
		}
		for _, c := range out.Calendars {
			name := c.Document.PointName
			if first, dup := seen[name]; dup {
				p.logger.Warn("duplicate point skipped", "point", name, "office", out.Office, "first_office", first)
				continue
			}
			seen[name] = out.Office
			calendars = append(calendars, publishedCalendar{Calendar: c, Office: out.Office, Meta: out.Meta})
		}
	}
	return calendars, skipped
}

// calendarKeys are the object keys of one point. The .ical name is the
// original subscription URL and is kept for existing subscribers.
func calendarKeys(pointName string) []string {
	return []string{pointName + ".ics", pointName + ".ical"}
}

func (p *Pipeline) publish(ctx context.Context, calendars []publishedCalendar) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, c := range calendars {
		for _, key := range calendarKeys(c.Document.PointName) {
			g.Go(func() error {
				if err := p.store.Put(gCtx, key, p.opts.CalendarContentType, c.Body); err != nil {
					return fmt.Errorf("store %s: %w", key, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.metrics.CalendarsPublished.Add(float64(len(calendars)))
	return nil
}

func (p *Pipeline) publishIndex(ctx context.Context, calendars []publishedCalendar) error {
	names := make([]string, len(calendars))
	for i, c := range calendars {
		names[i] = c.Document.PointName
	}
	index, err := RenderIndex(names, p.opts.PublicURL, p.clock.Now())
	if err != nil {
		return err
	}
	if err := p.store.Put(ctx, "index.html", htmlContentType, index); err != nil {
		return fmt.Errorf("store index.html: %w", err)
	}
	if err := p.store.Put(ctx, "error.html", htmlContentType, []byte(errorPage)); err != nil {
		return fmt.Errorf("store error.html: %w", err)
	}
	return nil
}

// notify is best effort: the calendars are already published, so a broker
// outage is logged rather than failing the run.
func (p *Pipeline) notify(ctx context.Context, calendars []publishedCalendar) {
	if p.notifier == nil || len(calendars) == 0 {
		return
	}
	now := p.clock.Now().UTC().Truncate(time.Second)
	pubs := make([]domain.Publication, len(calendars))
	for i, c := range calendars {
		pubs[i] = domain.Publication{
			Office:         c.Office,
			PointCode:      c.Document.PointCode,
			PointName:      c.Document.PointName,
			RegionName:     c.Document.RegionName,
			Keys:           calendarKeys(c.Document.PointName),
			ReportDatetime: c.Meta.ReportDatetime,
			Events:         len(c.Document.Events),
			PublishedAt:    now,
		}
	}
	if err := p.notifier.Publish(ctx, pubs); err != nil {
		p.logger.Error("publish notifications failed", "error", err)
		return
	}
	p.metrics.NotificationsProduced.Add(float64(len(pubs)))
}
