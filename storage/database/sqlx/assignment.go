package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/assignment"
)

const dateLayout = "2006-01-02"

// dueOrdering is the default listing order: soonest due first.
var dueOrdering = []core.DBOrdering{
	{Field: "due_date", Ascending: true},
	{Field: "due_time", Ascending: true},
}

func orderBy(orderings []core.DBOrdering) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		clauses = append(clauses, ord.String())
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID                  string         `db:"id"`
	OwnerID             string         `db:"owner_id"`
	Title               string         `db:"title"`
	Description         string         `db:"description"`
	Subject             string         `db:"subject"`
	DueDate             string         `db:"due_date"`
	DueTime             string         `db:"due_time"`
	Priority            string         `db:"priority"`
	Status              string         `db:"status"`
	EstimatedHours      float64        `db:"estimated_hours"`
	ActualHours         float64        `db:"actual_hours"`
	Reminders           types.JSONText `db:"reminders"`
	NotificationHandles types.JSONText `db:"notification_handles"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
	CompletedAt         null.Time      `db:"completed_at"`
}

func (repo assignmentRepository) row(a assignment.Assignment) (assignmentRow, error) {
	reminders, err := json.Marshal(a.Reminders)
	if err != nil {
		return assignmentRow{}, errors.Wrap(err, "marshalling reminders")
	}
	handles, err := json.Marshal(a.NotificationHandles)
	if err != nil {
		return assignmentRow{}, errors.Wrap(err, "marshalling notification handles")
	}

	var completedAt null.Time
	if a.CompletedAt != nil {
		completedAt = null.TimeFrom(a.CompletedAt.UTC())
	}
	return assignmentRow{
		ID:                  a.ID,
		OwnerID:             a.OwnerID,
		Title:               a.Title,
		Description:         a.Description,
		Subject:             a.Subject,
		DueDate:             a.DueDate,
		DueTime:             a.DueTime,
		Priority:            string(a.Priority),
		Status:              string(a.Status),
		EstimatedHours:      a.EstimatedHours,
		ActualHours:         a.ActualHours,
		Reminders:           reminders,
		NotificationHandles: handles,
		CreatedAt:           a.CreatedAt.UTC(),
		UpdatedAt:           a.UpdatedAt.UTC(),
		CompletedAt:         completedAt,
	}, nil
}

func (repo assignmentRepository) unrow(row assignmentRow) (assignment.Assignment, error) {
	a := assignment.Assignment{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Title:          row.Title,
		Description:    row.Description,
		Subject:        row.Subject,
		DueDate:        row.DueDate,
		DueTime:        row.DueTime,
		Priority:       assignment.Priority(row.Priority),
		Status:         assignment.Status(row.Status),
		EstimatedHours: row.EstimatedHours,
		ActualHours:    row.ActualHours,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if err := row.Reminders.Unmarshal(&a.Reminders); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "unmarshalling reminders")
	}
	if err := row.NotificationHandles.Unmarshal(&a.NotificationHandles); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "unmarshalling notification handles")
	}
	if row.CompletedAt.Valid {
		completedAt := row.CompletedAt.Time
		a.CompletedAt = &completedAt
	}
	return a, nil
}

func (repo assignmentRepository) unrows(rows []assignmentRow) ([]assignment.Assignment, error) {
	all := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		a, err := repo.unrow(row)
		if err != nil {
			return nil, err
		}
		all = append(all, a)
	}
	return all, nil
}

func (repo assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	row, err := repo.row(a)
	if err != nil {
		return assignment.Assignment{}, err
	}

	_, err = repo.db.NamedExec(`
		INSERT INTO assignment (
			id, owner_id, title, description, subject, due_date, due_time,
			priority, status, estimated_hours, actual_hours, reminders,
			notification_handles, created_at, updated_at, completed_at
		) VALUES (
			:id, :owner_id, :title, :description, :subject, :due_date, :due_time,
			:priority, :status, :estimated_hours, :actual_hours, :reminders,
			:notification_handles, :created_at, :updated_at, :completed_at
		)`, row)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignmentByID(id string) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.Get(&row, repo.db.Rebind("SELECT * FROM assignment WHERE id = ?"), id)
	if err == sql.ErrNoRows {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return repo.unrow(row)
}

func (repo assignmentRepository) QueryAllAssignments() ([]assignment.Assignment, error) {
	var rows []assignmentRow
	if err := repo.db.Select(&rows, "SELECT * FROM assignment"+orderBy(dueOrdering)); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return repo.unrows(rows)
}

func (repo assignmentRepository) QueryOwnerAssignments(ownerID string) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.Select(
		&rows,
		repo.db.Rebind("SELECT * FROM assignment WHERE owner_id = ?"+orderBy(dueOrdering)),
		ownerID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return repo.unrows(rows)
}

func (repo assignmentRepository) FilterAssignments(ownerID string, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	where := []string{"owner_id = ?"}
	args := []interface{}{ownerID}

	if filter.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(subject) LIKE ?)")
		s := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, s, s, s)
	}
	if filter.Subject != "" {
		where = append(where, "LOWER(subject) = ?")
		args = append(args, strings.ToLower(filter.Subject))
	}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.DueFrom.IsZero() {
		where = append(where, "due_date >= ?")
		args = append(args, filter.DueFrom.Format(dateLayout))
	}
	if !filter.DueTo.IsZero() {
		where = append(where, "due_date <= ?")
		args = append(args, filter.DueTo.Format(dateLayout))
	}

	q := "SELECT * FROM assignment WHERE " + strings.Join(where, " AND ") + orderBy(dueOrdering)
	var rows []assignmentRow
	if err := repo.db.Select(&rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	return repo.unrows(rows)
}

func (repo assignmentRepository) UpdateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	row, err := repo.row(a)
	if err != nil {
		return assignment.Assignment{}, err
	}

	res, err := repo.db.NamedExec(`
		UPDATE assignment SET
			title = :title,
			description = :description,
			subject = :subject,
			due_date = :due_date,
			due_time = :due_time,
			priority = :priority,
			status = :status,
			estimated_hours = :estimated_hours,
			actual_hours = :actual_hours,
			reminders = :reminders,
			notification_handles = :notification_handles,
			updated_at = :updated_at,
			completed_at = :completed_at
		WHERE id = :id`, row)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	q, args, err := sqlx.In("DELETE FROM assignment WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	return nil
}
