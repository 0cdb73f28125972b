package core

import "time"

type (
	// NotificationPayload is the user-facing content of a one-shot notification.
	NotificationPayload struct {
		Title string
		Body  string
	}

	// Notification is a payload that reached its scheduled fire time.
	Notification struct {
		Handle  string
		FiredAt time.Time
		Payload NotificationPayload
	}

	// NotificationService schedules one-shot deliveries at absolute fire times.
	NotificationService interface {
		// Schedule registers a delivery at `at` and returns an opaque handle
		// usable to cancel it. It may fail when delivery is unavailable.
		Schedule(at time.Time, payload NotificationPayload) (string, error)
		// Cancel drops a pending delivery. Cancelling an unknown or
		// already-fired handle is a no-op, not an error.
		Cancel(handle string) error
	}
)
