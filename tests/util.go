package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chuoapp/chuo/core/assignment"
)

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	ownerID, title, subject, dueDate, dueTime string,
	status assignment.Status,
	reminders []assignment.Reminder,
	createdAt ...time.Time,
) assignment.Assignment {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if reminders == nil {
		reminders = assignment.DefaultReminders()
	}
	a := assignment.Assignment{
		ID:                  uuid.NewString(),
		OwnerID:             ownerID,
		Title:               title,
		Subject:             subject,
		DueDate:             dueDate,
		DueTime:             dueTime,
		Priority:            assignment.PriorityMedium,
		Status:              status,
		Reminders:           reminders,
		NotificationHandles: []string{},
		CreatedAt:           tstamp,
		UpdatedAt:           tstamp,
	}
	if status == assignment.StatusCompleted {
		a.CompletedAt = &tstamp
	}
	a, err := repo.CreateAssignment(a)
	if err != nil {
		t.Fatalf("createAssignment() failed: %v", err)
	}
	return a
}
