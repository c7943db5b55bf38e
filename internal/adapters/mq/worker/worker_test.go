package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/drainwatch/internal/adapters/mq/queue"
	"github.com/okian/drainwatch/internal/adapters/mq/worker"
	"github.com/okian/drainwatch/internal/domain/model"
	logging "github.com/okian/drainwatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

// Mock implementations for testing.
type mockQueue struct {
	tasks chan queue.Task
}

func newMockQueue() *mockQueue {
	return &mockQueue{tasks: make(chan queue.Task, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Task {
	return mq.tasks
}

func (mq *mockQueue) Close() error {
	close(mq.tasks)
	return nil
}

type mockProcessor struct {
	mu     sync.Mutex
	errors map[string]error
	calls  int
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{errors: make(map[string]error)}
}

func (mp *mockProcessor) Process(ctx context.Context, task model.VesselTask) (model.VesselResult, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.calls++
	if err, ok := mp.errors[task.VesselID]; ok {
		return model.VesselResult{}, err
	}
	events := make([]model.DrainEvent, len(task.Readings))
	return model.VesselResult{VesselID: task.VesselID, Events: events}, nil
}

func (mp *mockProcessor) setError(id string, err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.errors[id] = err
}

type mockSink struct {
	mu      sync.Mutex
	results map[string]model.VesselResult
}

func newMockSink() *mockSink {
	return &mockSink{results: make(map[string]model.VesselResult)}
}

func (ms *mockSink) Collect(ctx context.Context, r model.VesselResult) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.results[r.VesselID] = r
}

func (ms *mockSink) get(id string) (model.VesselResult, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	r, ok := ms.results[id]
	return r, ok
}

func (ms *mockSink) len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.results)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		q := newMockQueue()
		proc := newMockProcessor()
		sink := newMockSink()
		ctx := context.Background()

		convey.Convey("When running a worker over two tasks", func() {
			w := worker.NewInMemoryWorker(q, proc, sink, worker.WithName("test-worker"))
			go w.Run(ctx)

			q.tasks <- model.VesselTask{VesselID: "V1", Readings: make([]model.Reading, 3)}
			q.tasks <- model.VesselTask{VesselID: "V2"}
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then both results reach the sink", func() {
				r, ok := sink.get("V1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(r.Events, convey.ShouldHaveLength, 3)
				_, ok = sink.get("V2")
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When processing fails for one vessel", func() {
			proc.setError("V1", errors.New("boom"))
			w := worker.NewInMemoryWorker(q, proc, sink)
			go w.Run(ctx)

			q.tasks <- model.VesselTask{VesselID: "V1"}
			q.tasks <- model.VesselTask{VesselID: "V2"}
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then the failed vessel is not collected and the worker continues", func() {
				_, ok := sink.get("V1")
				convey.So(ok, convey.ShouldBeFalse)
				_, ok = sink.get("V2")
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			q.tasks <- model.VesselTask{VesselID: "V1"}
			w := worker.NewInMemoryWorker(q, proc, sink)
			go w.Run(cctx)

			convey.Convey("Then the worker stops without processing", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
				convey.So(sink.len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When shutting down an idle worker", func() {
			w := worker.NewInMemoryWorker(q, proc, sink)
			go w.Run(ctx)
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then it stops gracefully and repeated shutdowns are safe", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool backed by an in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		proc := newMockProcessor()
		sink := newMockSink()

		convey.Convey("When the worker count is not positive", func() {
			pool := worker.NewPool(0, q, proc, sink)

			convey.Convey("Then a default count is used", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When many tasks are processed concurrently", func() {
			pool := worker.NewPool(4, q, proc, sink)
			pool.Start(ctx)

			const n = 100
			for i := 0; i < n; i++ {
				convey.So(q.EnqueueWait(ctx, model.VesselTask{VesselID: fmt.Sprintf("V%03d", i)}), convey.ShouldBeNil)
			}
			_ = q.Close()
			pool.Wait()

			convey.Convey("Then every task is collected exactly once", func() {
				convey.So(sink.len(), convey.ShouldEqual, n)
				convey.So(proc.calls, convey.ShouldEqual, n)
			})
		})

		convey.Convey("When the pool is shut down", func() {
			pool := worker.NewPool(2, q, proc, sink)
			pool.Start(ctx)

			convey.Convey("Then the queue is closed and workers stop", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerOptions(t *testing.T) {
	convey.Convey("Given worker options", t, func() {
		convey.Convey("Then empty or nil values are ignored", func() {
			w := worker.NewInMemoryWorker(newMockQueue(), newMockProcessor(), newMockSink(),
				worker.WithName(""),
				worker.WithLogger(nil),
				worker.WithLogger(logging.Named("custom")),
			)
			convey.So(w, convey.ShouldNotBeNil)
		})
	})
}
