package dummydb

import (
	"sort"
	"strings"

	"github.com/chuoapp/chuo/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) query(ownerID string) []assignment.Assignment {
	all := make([]assignment.Assignment, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		if a.OwnerID == ownerID {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].DueDate != all[j].DueDate {
			return all[i].DueDate < all[j].DueDate
		}
		return all[i].DueTime < all[j].DueTime
	})
	return all
}

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAllAssignments() ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	all := make([]assignment.Assignment, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		all = append(all, *a)
	}
	return all, nil
}

func (repo *assignmentRepository) QueryOwnerAssignments(ownerID string) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(ownerID), nil
}

func (repo *assignmentRepository) FilterAssignments(ownerID string, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matches := make([]assignment.Assignment, 0)
	for _, a := range repo.query(ownerID) {
		if matchesFilter(a, filter) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

func (repo *assignmentRepository) UpdateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[a.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func matchesFilter(a assignment.Assignment, filter assignment.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(a.Title), s) ||
			strings.Contains(strings.ToLower(a.Description), s) ||
			strings.Contains(strings.ToLower(a.Subject), s)) {
			return false
		}
	}
	if filter.Subject != "" && !strings.EqualFold(a.Subject, filter.Subject) {
		return false
	}
	if filter.Priority != "" && a.Priority != filter.Priority {
		return false
	}
	if filter.Status != "" && a.Status != filter.Status {
		return false
	}
	if !filter.DueFrom.IsZero() && a.DueDate < filter.DueFrom.Format("2006-01-02") {
		return false
	}
	if !filter.DueTo.IsZero() && a.DueDate > filter.DueTo.Format("2006-01-02") {
		return false
	}
	return true
}
