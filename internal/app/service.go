// Package service runs the drainwatch batch: per-vessel detection and
// reconciliation on a worker pool, then the daily aggregation, then
// publication to the report store.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/drainwatch/internal/adapters/gateway"
	"github.com/okian/drainwatch/internal/adapters/mq/queue"
	"github.com/okian/drainwatch/internal/adapters/mq/worker"
	"github.com/okian/drainwatch/internal/adapters/repository"
	"github.com/okian/drainwatch/internal/domain/aggregate"
	"github.com/okian/drainwatch/internal/domain/detect"
	"github.com/okian/drainwatch/internal/domain/model"
	"github.com/okian/drainwatch/internal/domain/reconcile"
	"github.com/okian/drainwatch/pkg/logger"
	"github.com/okian/drainwatch/pkg/metrics"
)

const defaultQueueSize = 1024

// Service executes batch runs. Only one run is active at a time.
type Service struct {
	runMu sync.Mutex

	detector   *detect.Detector
	engine     *reconcile.Engine
	aggregator *aggregate.Aggregator
	reader     *gateway.CSVReader
	store      repository.Store

	workerCount int
	queueSize   int
	input       Input

	mu   sync.RWMutex
	last *Report

	logger logger.Logger
}

// New constructs a Service with default parameters.
func New(opts ...Option) *Service {
	s := &Service{
		detector:   detect.New(),
		engine:     reconcile.New(),
		aggregator: aggregate.New(),
		reader:     gateway.NewCSVReader(),
		queueSize:  defaultQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}
	return s
}

// Run reads the input files and executes a batch over them. A missing
// readings file fails the run; missing tickets or vessels are reported and
// treated as empty.
func (s *Service) Run(ctx context.Context, in Input) (Report, error) {
	data, err := s.load(ctx, in)
	if err != nil {
		return Report{}, err
	}
	return s.RunData(ctx, data)
}

// Rerun executes a batch over the configured input and returns the stats of
// the published run.
func (s *Service) Rerun(ctx context.Context) (repository.Stats, error) {
	rep, err := s.Run(ctx, s.input)
	if err != nil {
		return repository.Stats{}, err
	}
	return repository.StatsOf(rep.Snapshot()), nil
}

// Last returns the most recent completed report.
func (s *Service) Last() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

func (s *Service) load(ctx context.Context, in Input) (Data, error) {
	readings, rrep, err := s.reader.ReadReadingsFile(ctx, in.ReadingsPath)
	if err != nil {
		return Data{}, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	tickets, trep, err := s.reader.ReadTicketsFile(ctx, in.TicketsPath)
	if err != nil {
		return Data{}, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	vessels, vrep, err := s.reader.ReadVesselsFile(ctx, in.VesselsPath)
	if err != nil {
		return Data{}, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	return Data{
		Readings: readings,
		Tickets:  tickets,
		Vessels:  vessels,
		Ingest: map[string]model.IngestReport{
			gateway.SourceReadings: rrep,
			gateway.SourceTickets:  trep,
			gateway.SourceVessels:  vrep,
		},
	}, nil
}

// RunData executes a batch over parsed input. When ctx ends early the
// partial report is returned together with ErrCancelled and is not
// published.
func (s *Service) RunData(ctx context.Context, data Data) (Report, error) {
	if !s.runMu.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	start := time.Now()
	rep := Report{
		RunID:  runID(data),
		Ingest: make(map[string]model.IngestReport, len(data.Ingest)),
	}
	for src, ir := range data.Ingest {
		rep.Ingest[src] = ir
		metrics.RecordIngest(src, ir.Accepted, ir.Dropped)
	}

	readings := model.GroupReadings(data.Readings)
	tickets := model.GroupTickets(data.Tickets)
	ids := model.VesselIDs(readings, tickets)

	s.logger.Info(ctx, "run started",
		logger.String("run_id", rep.RunID),
		logger.Int("vessels", len(ids)),
		logger.Int("readings", len(data.Readings)),
		logger.Int("tickets", len(data.Tickets)),
	)

	results := s.process(ctx, ids, readings, tickets)

	done := make(map[string]struct{}, len(results))
	var doneReadings []model.Reading
	var doneTickets []model.Ticket
	for _, r := range results {
		done[r.VesselID] = struct{}{}
		rep.Vessels = append(rep.Vessels, r.VesselID)
		rep.Events = append(rep.Events, r.Events...)
		rep.Matches = append(rep.Matches, r.Matches...)
		rep.Rates = append(rep.Rates, r.Rates)
		doneReadings = append(doneReadings, readings[r.VesselID]...)
		doneTickets = append(doneTickets, tickets[r.VesselID]...)
	}
	for _, id := range ids {
		if _, ok := done[id]; !ok {
			rep.Skipped = append(rep.Skipped, id)
		}
	}
	if len(rep.Skipped) > 0 {
		s.logger.Warn(ctx, "vessels skipped",
			logger.Int("count", len(rep.Skipped)),
			logger.Any("vessels", rep.Skipped),
		)
	}

	rep.StatusCounts = model.StatusCounts(rep.Matches)
	rep.Daily = s.aggregator.Aggregate(doneReadings, doneTickets, rep.Events, model.CapacitiesFrom(data.Vessels))
	rep.KPIs = aggregate.KPIs(rep.Daily)

	s.record(rep)
	elapsed := time.Since(start)
	metrics.RecordRun(float64(elapsed.Microseconds()) / 1000)

	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, rep.Snapshot()); err != nil {
			metrics.RecordErrorByComponent("app", "publish")
			return rep, fmt.Errorf("%w: %w", ErrPublish, err)
		}
	}

	s.mu.Lock()
	s.last = &rep
	s.mu.Unlock()

	s.logger.Info(ctx, "run finished",
		logger.String("run_id", rep.RunID),
		logger.Int("events", len(rep.Events)),
		logger.Int("matches", len(rep.Matches)),
		logger.Int("daily_rows", len(rep.Daily)),
		logger.Float64("total_unaccounted", rep.KPIs.TotalUnaccounted),
		logger.Duration("elapsed", elapsed),
	)
	return rep, nil
}

// process fans the vessels out over a fresh queue and pool and returns the
// completed results ordered by vessel id.
func (s *Service) process(ctx context.Context, ids []string, readings map[string][]model.Reading, tickets map[string][]model.Ticket) []model.VesselResult {
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	sink := newCollector(len(ids))
	pool := worker.NewPool(s.workerCount, q, &vesselProcessor{detector: s.detector, engine: s.engine}, sink)
	pool.Start(ctx)

	for _, id := range ids {
		task := model.VesselTask{VesselID: id, Readings: readings[id], Tickets: tickets[id]}
		if err := q.EnqueueWait(ctx, task); err != nil {
			s.logger.Warn(ctx, "stopped enqueueing vessels", logger.Error(err))
			break
		}
	}
	if err := q.Close(); err != nil {
		s.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	pool.Wait()

	return sink.sorted()
}

func (s *Service) record(rep Report) {
	significant := 0
	for _, e := range rep.Events {
		if e.Significant {
			significant++
		}
	}
	metrics.RecordDrainEvents(len(rep.Events), significant)
	for _, m := range rep.Matches {
		metrics.RecordTicketStatus(string(m.Status))
	}
	metrics.RecordVesselsSkipped(len(rep.Skipped))
}
