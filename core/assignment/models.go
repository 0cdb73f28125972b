package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/chuoapp/chuo/core"
)

type (
	Priority string
	Status   string
)

// Priorities. Ordering only affects display/sort, never scheduling.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Stored statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"

	// StatusOverdue is derived from the due instant at read time and is never
	// persisted. It is only meaningful as a QueryFilter value.
	StatusOverdue Status = "overdue"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Reminder is one policy entry: fire `TimeBeforeDue` minutes before the due
// instant. Disabled entries are never scheduled.
type Reminder struct {
	ID            string `json:"id"`
	TimeBeforeDue int    `json:"time_before_due"` // minutes; 0 = at due time
	Message       string `json:"message"`
	Enabled       bool   `json:"enabled"`
}

// DefaultReminders is the policy attached to new assignments created without
// an explicit one.
func DefaultReminders() []Reminder {
	return []Reminder{
		{ID: uuid.NewString(), TimeBeforeDue: 24 * 60, Message: "Due in 1 day", Enabled: true},
		{ID: uuid.NewString(), TimeBeforeDue: 6 * 60, Message: "Due in 6 hours", Enabled: true},
		{ID: uuid.NewString(), TimeBeforeDue: 60, Message: "Due in 1 hour", Enabled: true},
		{ID: uuid.NewString(), TimeBeforeDue: 15, Message: "Due in 15 minutes", Enabled: false},
	}
}

type Assignment struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subject     string   `json:"subject"`
	DueDate     string   `json:"due_date"` // local calendar date, "2006-01-02"
	DueTime     string   `json:"due_time"` // local time of day, "15:04"
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`

	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`

	Reminders []Reminder `json:"reminders"`

	// NotificationHandles is the unordered set of handles currently registered
	// with the notification service for this assignment. Invariant: every
	// handle maps to one enabled, still-future reminder of a non-completed
	// assignment.
	NotificationHandles []string `json:"notification_handles"`

	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DueAt combines DueDate and DueTime into the absolute due instant.
func (a *Assignment) DueAt() (time.Time, error) {
	return CombineDueAt(a.DueDate, a.DueTime)
}

// IsOverdue derives the overdue display state: not completed and past due.
// A malformed due date/time never classifies as overdue.
func (a *Assignment) IsOverdue(now time.Time) bool {
	if a.Status == StatusCompleted {
		return false
	}
	due, err := a.DueAt()
	if err != nil {
		return false
	}
	return now.After(due)
}

// NewReminder is one policy entry of an assignment draft.
type NewReminder struct {
	TimeBeforeDue int    `json:"time_before_due" validate:"gte=0"`
	Message       string `json:"message"`
	Enabled       bool   `json:"enabled"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title          string        `json:"title" validate:"required"`
	Description    string        `json:"description"`
	Subject        string        `json:"subject" validate:"omitempty,alphanum_"`
	DueDate        string        `json:"due_date" validate:"required,duedate"`
	DueTime        string        `json:"due_time" validate:"required,duetime"`
	Priority       Priority      `json:"priority" validate:"omitempty,priority"`
	EstimatedHours float64       `json:"estimated_hours" validate:"omitempty,gte=0"`
	Reminders      []NewReminder `json:"reminders" validate:"omitempty,dive"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Subject = core.CleanString(na.Subject)
	na.DueDate = core.CleanString(na.DueDate)
	na.DueTime = core.CleanString(na.DueTime)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment. Blank fields keep the original value; a non-nil empty
// Reminders slice clears the policy.
type UpdateAssignment struct {
	Title          string        `json:"title"`
	Description    *string       `json:"description"`
	Subject        string        `json:"subject" validate:"omitempty,alphanum_"`
	DueDate        string        `json:"due_date" validate:"omitempty,duedate"`
	DueTime        string        `json:"due_time" validate:"omitempty,duetime"`
	Priority       Priority      `json:"priority" validate:"omitempty,priority"`
	Status         Status        `json:"status" validate:"omitempty,openstatus"`
	EstimatedHours *float64      `json:"estimated_hours" validate:"omitempty,gte=0"`
	ActualHours    *float64      `json:"actual_hours" validate:"omitempty,gte=0"`
	Reminders      []NewReminder `json:"reminders" validate:"omitempty,dive"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate, orig Assignment) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Subject = core.CleanString(ua.Subject)
	ua.DueDate = core.CleanString(ua.DueDate)
	ua.DueTime = core.CleanString(ua.DueTime)

	// validate the provided values before blanks are filled in from the
	// original record; original values passed validation when first stored
	if err := validate.Struct(ua); err != nil {
		return err
	}

	if ua.Title == "" {
		ua.Title = orig.Title
	}
	if ua.Subject == "" {
		ua.Subject = orig.Subject
	}
	if ua.DueDate == "" {
		ua.DueDate = orig.DueDate
	}
	if ua.DueTime == "" {
		ua.DueTime = orig.DueTime
	}
	if ua.Priority == "" {
		ua.Priority = orig.Priority
	}
	if ua.Status == "" {
		ua.Status = orig.Status
	}
	return nil
}

type QueryFilter struct {
	Search   string    `query:"search"`
	Subject  string    `query:"subject"`
	Priority Priority  `query:"priority"`
	Status   Status    `query:"status"` // may be StatusOverdue (derived)
	DueFrom  time.Time `query:"due_from"`
	DueTo    time.Time `query:"due_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Subject == "" && qf.Priority == "" && qf.Status == "" &&
		qf.DueFrom.IsZero() && qf.DueTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Subject = core.CleanString(qf.Subject)
}
