package service

import (
	"github.com/okian/drainwatch/internal/adapters/gateway"
	"github.com/okian/drainwatch/internal/adapters/repository"
	"github.com/okian/drainwatch/internal/config"
	"github.com/okian/drainwatch/internal/domain/aggregate"
	"github.com/okian/drainwatch/internal/domain/detect"
	"github.com/okian/drainwatch/internal/domain/reconcile"
	"github.com/okian/drainwatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines. Zero means NumCPU.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count >= 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the vessel task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDetector replaces the drain event detector.
func WithDetector(d *detect.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithEngine replaces the reconciliation engine.
func WithEngine(e *reconcile.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithAggregator replaces the daily aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithReader replaces the CSV reader used by Run.
func WithReader(r *gateway.CSVReader) Option {
	return func(s *Service) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithStore publishes every completed run to store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithInput sets the files Rerun reads.
func WithInput(in Input) Option {
	return func(s *Service) {
		s.input = in
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// FromConfig translates process configuration into service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDetector(detect.New(
			detect.WithThreshold(cfg.Threshold),
			detect.WithLag(cfg.Lag),
			detect.WithMergeGap(cfg.MergeGap()),
			detect.WithSignificanceThreshold(cfg.SignificanceThreshold),
		)),
		WithEngine(reconcile.New(
			reconcile.WithWindowHours(cfg.WindowHours),
			reconcile.WithOutlierFrac(cfg.OutlierFrac),
		)),
		WithAggregator(aggregate.New(
			aggregate.WithVolumeTolerance(cfg.VolumeTolerance),
			aggregate.WithPctTolerance(cfg.PctTolerance),
		)),
		WithInput(Input{
			ReadingsPath: cfg.ReadingsPath,
			TicketsPath:  cfg.TicketsPath,
			VesselsPath:  cfg.VesselsPath,
		}),
	}
}
