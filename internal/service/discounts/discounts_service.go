// Package discounts runs the weekly retrieval of one or more retailers:
// work units in, deduplicated and validated offers out to the store.
package discounts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/metrics"
	"github.com/ougirez/discounts/internal/pkg/resume"
	"github.com/ougirez/discounts/internal/pkg/store"
	"github.com/ougirez/discounts/internal/pkg/week"
	"github.com/ougirez/discounts/internal/service/grouping"
	"github.com/ougirez/discounts/internal/service/retailers"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize = 300
	defaultWorkers   = 4
)

type Options struct {
	BatchSize  int
	Workers    int
	BatchSizes map[domain.MarketType]int
}

// Report summarizes one retailer run.
type Report struct {
	MarketType domain.MarketType `json:"market_type"`
	Window     week.Window       `json:"window"`
	Skipped    bool              `json:"skipped"`
	Units      int               `json:"units"`
	Failed     int               `json:"failed"`
	Empty      int               `json:"empty"`
	Offers     int               `json:"offers"`
	Dropped    int               `json:"dropped"`
	Pending    int               `json:"pending"`
	Done       bool              `json:"done"`
	Error      string            `json:"error,omitempty"`
}

type Service struct {
	registry *retailers.Registry
	dir      retailers.Directory
	store    store.Store
	resume   *resume.Store
	now      func() time.Time
	opts     Options

	running sync.Map
}

func NewDiscountsService(
	registry *retailers.Registry,
	dir retailers.Directory,
	st store.Store,
	rs *resume.Store,
	now func() time.Time,
	opts Options,
) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Service{registry: registry, dir: dir, store: st, resume: rs, now: now, opts: opts}
}

func (s *Service) batchSize(mt domain.MarketType) int {
	if n := s.opts.BatchSizes[mt]; n > 0 {
		return n
	}
	return s.opts.BatchSize
}

// Pending returns the resume state of mt, if a batched run is unfinished.
func (s *Service) Pending(mt domain.MarketType) (*resume.Pending, bool, error) {
	if _, err := s.registry.Get(mt); err != nil {
		return nil, false, err
	}
	return s.resume.Load(mt)
}

// RunAll runs every retailer in turn. A failing retailer does not stop the
// others; its error is carried in its report.
func (s *Service) RunAll(ctx context.Context, mts []domain.MarketType) []Report {
	if len(mts) == 0 {
		mts = s.registry.MarketTypes()
	}

	reports := make([]Report, 0, len(mts))
	for _, mt := range mts {
		if ctx.Err() != nil {
			reports = append(reports, Report{MarketType: mt, Error: ctx.Err().Error()})
			continue
		}
		r, err := s.Run(ctx, mt)
		if err != nil {
			logger.Errorf(ctx, "run %s: %v", mt, err)
			r.Error = err.Error()
		}
		reports = append(reports, r)
	}
	return reports
}

// Run processes the next batch of work units of one retailer.
func (s *Service) Run(ctx context.Context, mt domain.MarketType) (Report, error) {
	report := Report{MarketType: mt}

	adapter, err := s.registry.Get(mt)
	if err != nil {
		return report, err
	}

	if _, busy := s.running.LoadOrStore(mt, struct{}{}); busy {
		return report, fmt.Errorf("%s: %w", mt, constants.ErrRunInProgress)
	}
	defer s.running.Delete(mt)

	ctx = logger.WithFields(ctx, "market_type", string(mt))
	now := s.now()
	window := week.Current(now)
	report.Window = window

	pending, resuming, err := s.resume.Load(mt)
	if err != nil {
		return report, fmt.Errorf("resume.Load: %w", err)
	}
	if resuming && !pending.WeekStart.Equal(window.Start) {
		logger.Warnf(ctx, "dropping pending units of week %s", pending.WeekStart.Format(time.DateOnly))
		if err = s.resume.Delete(mt); err != nil {
			return report, fmt.Errorf("resume.Delete: %w", err)
		}
		resuming = false
	}

	if !resuming {
		has, err := s.store.HasOffers(ctx, mt, window.Start)
		if err != nil {
			return report, fmt.Errorf("store.HasOffers: %w", err)
		}
		if has {
			logger.Infof(ctx, "offers of week %s already stored", window)
			report.Skipped, report.Done = true, true
			return report, nil
		}
	}

	if p, ok := adapter.(retailers.Preparer); ok {
		if err = p.Prepare(ctx); err != nil {
			return report, fmt.Errorf("prepare: %w", err)
		}
	}

	if !resuming {
		units, err := adapter.DiscoverUnits(ctx, s.dir)
		if err != nil {
			return report, fmt.Errorf("discover units: %w", err)
		}
		for i := range units {
			units[i].Window, units[i].LastUpdate = window, week.Date(now)
		}
		pending = &resume.Pending{MarketType: mt, WeekStart: window.Start, Units: units}
	}
	if pending.Done() {
		logger.Warnf(ctx, "no work units")
		report.Done = true
		return report, s.resume.Delete(mt)
	}

	batch := pending.Take(s.batchSize(mt))
	report.Units = len(batch)
	logger.Infof(ctx, "fetching %d units, %d left for later runs", len(batch), len(pending.Units))

	results, err := s.fetch(ctx, adapter, batch)
	if err != nil {
		return report, err
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			report.Failed++
		case len(r.Products) == 0:
			report.Empty++
		}
	}

	grouped := grouping.Group(results, now)
	s.enrich(ctx, adapter, grouped.Offers)

	offers, dropped := validate(ctx, grouped)
	report.Offers, report.Dropped = len(offers), dropped
	metrics.RecordDropped(string(mt), dropped)

	if err = s.store.UpsertOffers(ctx, offers); err != nil {
		return report, fmt.Errorf("store.UpsertOffers: %w", err)
	}
	if err = s.store.UpsertUnitIndex(ctx, grouped.Index); err != nil {
		return report, fmt.Errorf("store.UpsertUnitIndex: %w", err)
	}
	if len(grouped.Groups) > 0 {
		if err = s.store.UpsertGroupMarkets(ctx, grouped.Groups); err != nil {
			return report, fmt.Errorf("store.UpsertGroupMarkets: %w", err)
		}
	}
	metrics.RecordStored(string(mt), len(offers))

	report.Done, err = s.resume.Save(pending)
	if err != nil {
		return report, fmt.Errorf("resume.Save: %w", err)
	}
	report.Pending = len(pending.Units)

	logger.Infof(ctx, "stored %d offers from %d units (%d failed, %d empty, %d dropped)",
		report.Offers, report.Units, report.Failed, report.Empty, report.Dropped)
	return report, nil
}

// fetch calls the adapter for every unit on a bounded pool. A failing unit
// never cancels its siblings.
func (s *Service) fetch(ctx context.Context, adapter retailers.Adapter, units []domain.WorkUnit) ([]grouping.Result, error) {
	mt := string(adapter.MarketType())
	results := make([]grouping.Result, len(units))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, unit := range units {
		g.Go(func() error {
			unitCtx := logger.WithFields(ctx, "unit", unit.ID)
			products, err := adapter.FetchAndParse(unitCtx, unit)
			results[i] = grouping.Result{Unit: unit, Products: products, Err: err}

			switch {
			case err != nil:
				metrics.RecordUnit(mt, metrics.OutcomeNoData)
				if !errors.Is(err, constants.ErrNoData) {
					err = retailers.NoData(err)
					results[i].Err = err
				}
				logger.Warnf(unitCtx, "unit %s: %v", unit.ID, err)
			case len(products) == 0:
				metrics.RecordUnit(mt, metrics.OutcomeEmpty)
			default:
				metrics.RecordUnit(mt, metrics.OutcomeOK)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// enrich runs the detail pass over the unique offers in place.
func (s *Service) enrich(ctx context.Context, adapter retailers.Adapter, offers []domain.Product) {
	e, ok := adapter.(retailers.Enricher)
	if !ok || len(offers) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i := range offers {
		g.Go(func() error {
			offers[i] = e.Enrich(ctx, offers[i])
			return nil
		})
	}
	_ = g.Wait()
}

// validate drops offers that fail validation and removes them from the unit
// indexes.
func validate(ctx context.Context, grouped grouping.Grouped) ([]domain.Product, int) {
	valid := make([]domain.Product, 0, len(grouped.Offers))
	invalid := make(map[string]struct{})
	for _, p := range grouped.Offers {
		if err := p.Validate(); err != nil {
			logger.Warnf(ctx, "dropping offer: %v", err)
			invalid[p.Key()] = struct{}{}
			continue
		}
		valid = append(valid, p)
	}

	if len(invalid) > 0 {
		for i := range grouped.Index {
			ids := make([]string, 0, len(grouped.Index[i].ProductIDs))
			for _, id := range grouped.Index[i].ProductIDs {
				if _, bad := invalid[id]; !bad {
					ids = append(ids, id)
				}
			}
			grouped.Index[i].ProductIDs = ids
		}
	}

	return valid, len(grouped.Offers) - len(valid)
}
