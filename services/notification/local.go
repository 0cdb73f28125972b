package notifsvc

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
)

var (
	ErrInvalidFireTime = errors.New("notification: invalid fire time")
	ErrStopped         = errors.New("notification: service stopped")
)

type pendingItem struct {
	handle    string
	at        time.Time
	payload   core.NotificationPayload
	cancelled bool
}

type fireQueue []*pendingItem

func (q fireQueue) Len() int { return len(q) }

func (q fireQueue) Less(i, j int) bool {
	return q[i].at.Before(q[j].at)
}

func (q fireQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *fireQueue) Push(x any) {
	*q = append(*q, x.(*pendingItem))
}

func (q *fireQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[0 : n-1]
	return item
}

// LocalService is an in-process notification primitive: a timer loop over a
// min-heap of fire times. Fired notifications drain on C(); handles are
// opaque uuids. Cancelled entries stay in the heap and are skipped when they
// surface.
type LocalService struct {
	mu      sync.Mutex
	queue   fireQueue
	index   map[string]*pendingItem
	out     chan core.Notification
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

var _ core.NotificationService = (*LocalService)(nil)

func NewLocalService(bufferSize int) *LocalService {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &LocalService{
		queue:  make(fireQueue, 0),
		index:  make(map[string]*pendingItem),
		out:    make(chan core.Notification, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// C drains fired notifications. Closed on Stop.
func (svc *LocalService) C() <-chan core.Notification {
	return svc.out
}

func (svc *LocalService) Start() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.started {
		return
	}
	svc.started = true
	heap.Init(&svc.queue)
	go svc.loop()
}

func (svc *LocalService) Stop() {
	svc.mu.Lock()
	if !svc.started || svc.stopped {
		svc.mu.Unlock()
		return
	}
	svc.stopped = true
	close(svc.stopCh)
	svc.mu.Unlock()
	<-svc.doneCh
}

func (svc *LocalService) Schedule(at time.Time, payload core.NotificationPayload) (string, error) {
	if at.IsZero() {
		return "", ErrInvalidFireTime
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.stopped {
		return "", ErrStopped
	}

	item := &pendingItem{
		handle:  uuid.NewString(),
		at:      at,
		payload: payload,
	}
	svc.index[item.handle] = item
	heap.Push(&svc.queue, item)
	svc.signalWakeup()
	return item.handle, nil
}

// Cancel is idempotent: unknown or already-fired handles are a no-op.
func (svc *LocalService) Cancel(handle string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if item, ok := svc.index[handle]; ok {
		item.cancelled = true
		delete(svc.index, handle)
	}
	return nil
}

// Pending reports the number of live (not cancelled, not fired) entries.
func (svc *LocalService) Pending() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.index)
}

// Dropped reports notifications discarded because the consumer lagged behind
// the out channel buffer.
func (svc *LocalService) Dropped() uint64 {
	return atomic.LoadUint64(&svc.dropped)
}

func (svc *LocalService) loop() {
	defer close(svc.doneCh)
	defer close(svc.out)

	var timer *time.Timer
	for {
		next, hasNext := svc.peek()
		if !hasNext {
			select {
			case <-svc.wakeup:
				continue
			case <-svc.stopCh:
				return
			}
		}

		wait := time.Until(next.at)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := svc.popDue(time.Now())
			for _, n := range due {
				select {
				case svc.out <- n:
				default:
					atomic.AddUint64(&svc.dropped, 1)
				}
			}
		case <-svc.wakeup:
			continue
		case <-svc.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (svc *LocalService) signalWakeup() {
	select {
	case svc.wakeup <- struct{}{}:
	default:
	}
}

func (svc *LocalService) peek() (*pendingItem, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	// drop cancelled entries surfacing at the top
	for len(svc.queue) > 0 && svc.queue[0].cancelled {
		heap.Pop(&svc.queue)
	}
	if len(svc.queue) == 0 {
		return nil, false
	}
	return svc.queue[0], true
}

func (svc *LocalService) popDue(now time.Time) []core.Notification {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	out := make([]core.Notification, 0)
	for len(svc.queue) > 0 {
		next := svc.queue[0]
		if next.cancelled {
			heap.Pop(&svc.queue)
			continue
		}
		if next.at.After(now) {
			break
		}
		item := heap.Pop(&svc.queue).(*pendingItem)
		delete(svc.index, item.handle)
		out = append(out, core.Notification{
			Handle:  item.handle,
			FiredAt: now,
			Payload: item.payload,
		})
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
