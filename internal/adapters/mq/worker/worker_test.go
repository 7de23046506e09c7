package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/quorum/internal/adapters/mq/queue"
	worker "github.com/okian/quorum/internal/adapters/mq/worker"
	"github.com/okian/quorum/internal/domain/model"
	logging "github.com/okian/quorum/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logging.Init()
	m.Run()
}

// Mock implementations for testing.
type mockQueue struct {
	eventChan chan queue.Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		eventChan: make(chan queue.Event, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) Close() error {
	close(mq.eventChan)
	return nil
}

func (mq *mockQueue) addEvent(event queue.Event) {
	mq.eventChan <- event
}

// mockSetter records position writes and can fail a configured number of
// times per idea to exercise the retry path.
type mockSetter struct {
	mu        sync.Mutex
	positions map[string]model.MatrixPosition
	failures  map[string]int
	calls     map[string]int
}

func newMockSetter() *mockSetter {
	return &mockSetter{
		positions: make(map[string]model.MatrixPosition),
		failures:  make(map[string]int),
		calls:     make(map[string]int),
	}
}

func (ms *mockSetter) SetPosition(ctx context.Context, sessionID, ideaID string, x, y float64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.calls[ideaID]++
	if ms.failures[ideaID] > 0 {
		ms.failures[ideaID]--
		return errors.New("transient store failure")
	}
	ms.positions[ideaID] = model.MatrixPosition{IdeaID: ideaID, X: x, Y: y}
	return nil
}

func (ms *mockSetter) position(ideaID string) (model.MatrixPosition, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	pos, ok := ms.positions[ideaID]
	return pos, ok
}

func (ms *mockSetter) callCount(ideaID string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.calls[ideaID]
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestPersistWorker(t *testing.T) {
	convey.Convey("Given a worker draining a queue", t, func() {
		mq := newMockQueue()
		setter := newMockSetter()
		w := worker.NewPersistWorker(mq, setter)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When an event arrives", func() {
			mq.addEvent(queue.Event{SessionID: "s1", IdeaID: "a", X: 30, Y: 70})

			convey.Convey("Then the position lands in the store", func() {
				ok := waitFor(time.Second, func() bool {
					_, ok := setter.position("a")
					return ok
				})
				convey.So(ok, convey.ShouldBeTrue)

				pos, _ := setter.position("a")
				convey.So(pos.X, convey.ShouldEqual, 30.0)
				convey.So(pos.Y, convey.ShouldEqual, 70.0)
			})
		})

		convey.Convey("When the store fails transiently", func() {
			setter.failures["b"] = 2
			mq.addEvent(queue.Event{SessionID: "s1", IdeaID: "b", X: 5, Y: 5})

			convey.Convey("Then the write is retried until it succeeds", func() {
				ok := waitFor(2*time.Second, func() bool {
					_, ok := setter.position("b")
					return ok
				})
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(setter.callCount("b"), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the store keeps failing past the retry budget", func() {
			setter.failures["c"] = 10
			mq.addEvent(queue.Event{SessionID: "s1", IdeaID: "c", X: 1, Y: 1})

			convey.Convey("Then the event is dropped after bounded attempts", func() {
				// 1 initial + 3 retries
				ok := waitFor(2*time.Second, func() bool {
					return setter.callCount("c") >= 4
				})
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(setter.callCount("c"), convey.ShouldEqual, 4)

				_, stored := setter.position("c")
				convey.So(stored, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then shutdown completes cleanly", func() {
				err := w.Shutdown(shutdownCtx)
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers on a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		setter := newMockSetter()
		pool := worker.NewPool(4, q, setter, worker.WithRetry(2, 10*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many events are enqueued", func() {
			for i := 0; i < 32; i++ {
				q.Enqueue(ctx, queue.Event{
					SessionID: "s1",
					IdeaID:    "idea-" + string(rune('a'+i%26)),
					X:         float64(i),
					Y:         float64(i),
				})
			}

			convey.Convey("Then shutdown drains the backlog before returning", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				err := pool.Shutdown(shutdownCtx)
				convey.So(err, convey.ShouldBeNil)

				// 26 distinct ideas received at least one write
				total := 0
				for i := 0; i < 26; i++ {
					if _, ok := setter.position("idea-" + string(rune('a'+i))); ok {
						total++
					}
				}
				convey.So(total, convey.ShouldEqual, 26)
			})
		})
	})
}
