package assignment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chuoapp/chuo/core"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
)

type (
	Repository interface {
		CreateAssignment(a Assignment) (Assignment, error)
		GetAssignmentByID(id string) (Assignment, error)
		QueryAllAssignments() ([]Assignment, error)
		QueryOwnerAssignments(ownerID string) ([]Assignment, error)
		// FilterAssignments applies AND operation on available QueryFilter
		// fields, scoped to ownerID. QueryFilter.Search does a
		// case-insensitive match on one of Title, Description or Subject.
		// QueryFilter.Status is matched against the stored status only;
		// derived statuses are the service's concern.
		FilterAssignments(ownerID string, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(a Assignment) (Assignment, error)
		DeleteAssignmentsByID(ids ...string) error
	}

	ServiceInterface interface {
		Create(ownerID string, na NewAssignment) (Assignment, *SchedulingWarning, error)
		Update(ownerID, id string, ua UpdateAssignment) (Assignment, *SchedulingWarning, error)
		Delete(ownerID, id string) (*SchedulingWarning, error)
		ToggleStatus(ownerID, id string) (Assignment, *SchedulingWarning, error)
		GetByID(ownerID, id string) (Assignment, error)
		Filter(ownerID string, filter QueryFilter) ([]Assignment, error)
		ResyncAll() (int, *SchedulingWarning, error)
	}

	Service struct {
		repo     Repository
		notifSvc core.NotificationService
		logger   core.Logger
		nowFunc  func() time.Time
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, notifSvc core.NotificationService, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		notifSvc: notifSvc,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// SchedulingWarning reports notification calls that failed during an
// otherwise successful operation. It is collected, never thrown: the owning
// data operation still succeeds, and the caller surfaces the reduced
// reminder count so the user is not silently left without reminders.
type SchedulingWarning struct {
	Requested int      `json:"requested"`
	Scheduled int      `json:"scheduled"`
	Errors    []string `json:"errors,omitempty"`
}

func (w *SchedulingWarning) addError(err error) {
	w.Errors = append(w.Errors, err.Error())
}

// orNil collapses a clean warning to nil so callers can test for degradation.
func (w *SchedulingWarning) orNil() *SchedulingWarning {
	if w == nil || (len(w.Errors) == 0 && w.Requested == w.Scheduled) {
		return nil
	}
	return w
}

func (svc *Service) Create(ownerID string, na NewAssignment) (Assignment, *SchedulingWarning, error) {
	now := svc.nowFunc()

	a := Assignment{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Title:          na.Title,
		Description:    na.Description,
		Subject:        na.Subject,
		DueDate:        na.DueDate,
		DueTime:        na.DueTime,
		Priority:       na.Priority,
		Status:         StatusPending,
		EstimatedHours: na.EstimatedHours,
		Reminders:      buildReminders(na.Reminders),
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	if na.Reminders == nil {
		a.Reminders = DefaultReminders()
	}

	a, err := svc.repo.CreateAssignment(a)
	if err != nil {
		return Assignment{}, nil, err
	}

	warn := new(SchedulingWarning)
	svc.reconcile(&a, now, warn)

	a, err = svc.repo.UpdateAssignment(a)
	if err != nil {
		return Assignment{}, nil, err
	}
	return a, warn.orNil(), nil
}

func (svc *Service) Update(ownerID, id string, ua UpdateAssignment) (Assignment, *SchedulingWarning, error) {
	now := svc.nowFunc()

	a, err := svc.getOwned(ownerID, id)
	if err != nil {
		return Assignment{}, nil, err
	}

	// cancel all current handles unconditionally; simpler and more robust
	// than diffing old vs. new reminder sets, and cancel is idempotent.
	warn := new(SchedulingWarning)
	svc.cancelAll(&a, warn)

	a.Title = ua.Title
	if ua.Description != nil {
		a.Description = *ua.Description
	}
	a.Subject = ua.Subject
	a.DueDate = ua.DueDate
	a.DueTime = ua.DueTime
	a.Priority = ua.Priority
	a.Status = ua.Status
	if a.Status != StatusCompleted {
		// an update may move a completed record back to an open status;
		// CompletedAt only ever marks a record currently completed
		a.CompletedAt = nil
	}
	if ua.EstimatedHours != nil {
		a.EstimatedHours = *ua.EstimatedHours
	}
	if ua.ActualHours != nil {
		a.ActualHours = *ua.ActualHours
	}
	if ua.Reminders != nil {
		a.Reminders = buildReminders(ua.Reminders)
	}
	a.UpdatedAt = now.UTC()

	svc.reconcile(&a, now, warn)

	a, err = svc.repo.UpdateAssignment(a)
	if err != nil {
		return Assignment{}, nil, err
	}
	return a, warn.orNil(), nil
}

// Delete cancels all live handles before removing the record: a crash in
// between leaves an orphaned record (recoverable) rather than live
// notifications whose handles are gone with the record.
func (svc *Service) Delete(ownerID, id string) (*SchedulingWarning, error) {
	a, err := svc.getOwned(ownerID, id)
	if err != nil {
		return nil, err
	}

	warn := new(SchedulingWarning)
	svc.cancelAll(&a, warn)

	if err = svc.repo.DeleteAssignmentsByID(a.ID); err != nil {
		return nil, err
	}
	return warn.orNil(), nil
}

// ToggleStatus flips pending/in_progress to completed, and completed back to
// pending (reopen). Completion cancels every live handle; reopening
// reconciles against the existing due date/time/policy, which yields zero new
// handles when the assignment is already past due.
func (svc *Service) ToggleStatus(ownerID, id string) (Assignment, *SchedulingWarning, error) {
	now := svc.nowFunc()

	a, err := svc.getOwned(ownerID, id)
	if err != nil {
		return Assignment{}, nil, err
	}

	warn := new(SchedulingWarning)
	switch a.Status {
	case StatusCompleted:
		a.Status = StatusPending
		a.CompletedAt = nil
		svc.reconcile(&a, now, warn)
	default:
		svc.cancelAll(&a, warn)
		a.Status = StatusCompleted
		completedAt := now.UTC()
		a.CompletedAt = &completedAt
		a.NotificationHandles = []string{}
	}
	a.UpdatedAt = now.UTC()

	a, err = svc.repo.UpdateAssignment(a)
	if err != nil {
		return Assignment{}, nil, err
	}
	return a, warn.orNil(), nil
}

func (svc *Service) GetByID(ownerID, id string) (Assignment, error) {
	return svc.getOwned(ownerID, id)
}

func (svc *Service) Filter(ownerID string, filter QueryFilter) ([]Assignment, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.repo.QueryOwnerAssignments(ownerID)
	}

	// overdue is a derived predicate, never a stored status: fetch the
	// non-completed candidates and classify against the clock here.
	if filter.Status == StatusOverdue {
		now := svc.nowFunc()
		filter.Status = ""
		all, err := svc.repo.FilterAssignments(ownerID, filter)
		if err != nil {
			return nil, err
		}
		overdue := make([]Assignment, 0, len(all))
		for _, a := range all {
			if a.IsOverdue(now) {
				overdue = append(overdue, a)
			}
		}
		return overdue, nil
	}
	return svc.repo.FilterAssignments(ownerID, filter)
}

// ResyncAll re-runs reconcile over every non-completed assignment and
// persists the fresh handle sets. Needed after a process restart: handles
// registered with an in-process notification service do not survive it.
// Returns the number of assignments resynced.
func (svc *Service) ResyncAll() (int, *SchedulingWarning, error) {
	now := svc.nowFunc()

	all, err := svc.repo.QueryAllAssignments()
	if err != nil {
		return 0, nil, err
	}

	var count int
	warn := new(SchedulingWarning)
	for _, a := range all {
		if a.Status == StatusCompleted {
			continue
		}
		svc.cancelAll(&a, warn)
		svc.reconcile(&a, now, warn)
		a.UpdatedAt = now.UTC()
		if _, err = svc.repo.UpdateAssignment(a); err != nil {
			return count, warn.orNil(), err
		}
		count++
	}
	return count, warn.orNil(), nil
}

// getOwned treats an id owned by another user the same as an unknown one.
func (svc *Service) getOwned(ownerID, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}
	if a.OwnerID != ownerID {
		return Assignment{}, ErrNotFound
	}
	return a, nil
}

// reconcile recomputes the desired fire list from the assignment's current
// due date/time/policy and registers a fresh handle set. The caller must have
// cancelled the previous handles already. Partial scheduling failures are
// collected into warn and whatever handles were obtained are kept.
func (svc *Service) reconcile(a *Assignment, now time.Time, warn *SchedulingWarning) {
	a.NotificationHandles = []string{}
	if a.Status == StatusCompleted {
		return
	}

	fires, err := ComputeFireTimes(a.DueDate, a.DueTime, a.Reminders, now)
	if err != nil {
		// stored due values are validated on write; reaching this means a
		// corrupt record, reported but not fatal to the data operation
		svc.logger.Error(fmt.Sprintf("computing fire times for assignment %s: %v", a.ID, err))
		warn.addError(err)
		return
	}

	warn.Requested += len(fires)
	handles := make([]string, 0, len(fires))
	for _, fire := range fires {
		handle, err := svc.notifSvc.Schedule(fire.At, core.NotificationPayload{Title: a.Title, Body: fire.Message})
		if err != nil {
			svc.logger.Error(fmt.Sprintf("scheduling reminder for assignment %s: %v", a.ID, err))
			warn.addError(err)
			continue
		}
		handles = append(handles, handle)
	}
	warn.Scheduled += len(handles)
	a.NotificationHandles = handles
}

// cancelAll cancels every live handle of the assignment and clears the set.
// Cancel failures are collected, never fatal.
func (svc *Service) cancelAll(a *Assignment, warn *SchedulingWarning) {
	for _, handle := range a.NotificationHandles {
		if err := svc.notifSvc.Cancel(handle); err != nil {
			svc.logger.Error(fmt.Sprintf("cancelling reminder %s for assignment %s: %v", handle, a.ID, err))
			warn.addError(err)
		}
	}
	a.NotificationHandles = []string{}
}

func buildReminders(drafts []NewReminder) []Reminder {
	reminders := make([]Reminder, 0, len(drafts))
	for _, d := range drafts {
		reminders = append(reminders, Reminder{
			ID:            uuid.NewString(),
			TimeBeforeDue: d.TimeBeforeDue,
			Message:       d.Message,
			Enabled:       d.Enabled,
		})
	}
	return reminders
}
