package dummydb

import (
	"sync"

	"github.com/chuoapp/chuo/core/assignment"
)

type (
	DB struct {
		assignment *assignmentTable
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
	}
)

func Open() (*DB, error) {
	db := &DB{
		assignment: &assignmentTable{table: make(map[string]*assignment.Assignment)},
	}
	return db, nil
}
