package dummynotif

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
)

var errDeliveryUnavailable = errors.New("notification delivery unavailable")

// Scheduled is one recorded Schedule call.
type Scheduled struct {
	Handle  string
	At      time.Time
	Payload core.NotificationPayload
}

// Service records schedule/cancel calls for assertions. FailNext makes the
// next N Schedule calls fail to simulate delivery being unavailable.
type Service struct {
	mu        sync.Mutex
	FailNext  int
	scheduled map[string]Scheduled
	cancelled []string
}

var _ core.NotificationService = (*Service)(nil)

func NewService() *Service {
	return &Service{scheduled: make(map[string]Scheduled)}
}

func (svc *Service) Schedule(at time.Time, payload core.NotificationPayload) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.FailNext > 0 {
		svc.FailNext--
		return "", errDeliveryUnavailable
	}

	handle := uuid.NewString()
	svc.scheduled[handle] = Scheduled{Handle: handle, At: at, Payload: payload}
	return handle, nil
}

func (svc *Service) Cancel(handle string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	delete(svc.scheduled, handle)
	svc.cancelled = append(svc.cancelled, handle)
	return nil
}

// Live returns the handles currently scheduled and not cancelled.
func (svc *Service) Live() []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	handles := make([]string, 0, len(svc.scheduled))
	for h := range svc.scheduled {
		handles = append(handles, h)
	}
	return handles
}

// Get returns the recorded Schedule call for handle.
func (svc *Service) Get(handle string) (Scheduled, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	s, ok := svc.scheduled[handle]
	return s, ok
}

// Cancelled returns every handle Cancel was called with, in call order.
func (svc *Service) Cancelled() []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]string(nil), svc.cancelled...)
}
