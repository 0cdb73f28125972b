package assignment

import (
	"time"

	"github.com/chuoapp/chuo/core"
)

// NewServiceMock returns a Service with an overridable clock so tests can pin
// "now" instead of racing the wall clock.
func NewServiceMock(repo Repository, notifSvc core.NotificationService, logger core.Logger, nowFunc func() time.Time) *Service {
	svc := NewService(repo, notifSvc, logger)
	if nowFunc != nil {
		svc.nowFunc = nowFunc
	}
	return svc
}
