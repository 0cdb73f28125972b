package assignment

import (
	"errors"
	"time"

	"github.com/chuoapp/chuo/core"
)

const (
	dueDateLayout = "2006-01-02"
	dueTimeLayout = "15:04"
)

var (
	errInvalidDueDate = errors.New("malformed due date, want YYYY-MM-DD")
	errInvalidDueTime = errors.New("malformed due time, want HH:MM")
)

// ReminderFire is one desired notification: a message to deliver at an
// absolute fire time.
type ReminderFire struct {
	At      time.Time
	Message string
}

// CombineDueAt combines a calendar date and a time of day into one absolute
// instant in the local timezone. Malformed input fails with a ValidationError.
func CombineDueAt(dueDate, dueTime string) (time.Time, error) {
	if _, err := time.Parse(dueDateLayout, dueDate); err != nil {
		return time.Time{}, core.NewValidationError(errInvalidDueDate,
			core.FieldError{Field: "due_date", Error: errInvalidDueDate.Error()})
	}
	if _, err := time.Parse(dueTimeLayout, dueTime); err != nil {
		return time.Time{}, core.NewValidationError(errInvalidDueTime,
			core.FieldError{Field: "due_time", Error: errInvalidDueTime.Error()})
	}
	return time.ParseInLocation(dueDateLayout+" "+dueTimeLayout, dueDate+" "+dueTime, time.Local)
}

// ComputeFireTimes maps (due date, due time, reminder policy) to the fire
// list of all enabled reminders whose fire time is still in the future.
// Reminders whose fire time has already passed are silently dropped; they are
// never scheduled-then-immediately-fired. An empty result is a valid outcome.
//
// `now` must be supplied by the caller; this function never reads the clock.
func ComputeFireTimes(dueDate, dueTime string, reminders []Reminder, now time.Time) ([]ReminderFire, error) {
	due, err := CombineDueAt(dueDate, dueTime)
	if err != nil {
		return nil, err
	}

	fires := make([]ReminderFire, 0, len(reminders))
	for _, r := range reminders {
		if !r.Enabled {
			continue
		}
		fireAt := due.Add(-time.Duration(r.TimeBeforeDue) * time.Minute)
		if !fireAt.After(now) {
			continue
		}
		fires = append(fires, ReminderFire{At: fireAt, Message: r.Message})
	}
	return fires, nil
}
