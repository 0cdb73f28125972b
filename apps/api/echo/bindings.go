package echoapi

import (
	"time"

	"github.com/chuoapp/chuo/core/assignment"
)

type (
	// AssignmentResponse decorates an assignment with its derived overdue
	// flag and, when notification calls failed, a scheduling warning.
	AssignmentResponse struct {
		assignment.Assignment
		IsOverdue bool                           `json:"is_overdue"`
		Warning   *assignment.SchedulingWarning `json:"scheduling_warning,omitempty"`
	}

	AssignmentListResponse struct {
		Assignments []AssignmentResponse `json:"assignments"`
	}

	DeleteResponse struct {
		Warning *assignment.SchedulingWarning `json:"scheduling_warning,omitempty"`
	}
)

func newAssignmentResponse(a assignment.Assignment, warn *assignment.SchedulingWarning, now time.Time) AssignmentResponse {
	return AssignmentResponse{
		Assignment: a,
		IsOverdue:  a.IsOverdue(now),
		Warning:    warn,
	}
}

func newAssignmentListResponse(all []assignment.Assignment, now time.Time) AssignmentListResponse {
	res := AssignmentListResponse{Assignments: make([]AssignmentResponse, 0, len(all))}
	for _, a := range all {
		res.Assignments = append(res.Assignments, newAssignmentResponse(a, nil, now))
	}
	return res
}
