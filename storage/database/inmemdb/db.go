package inmemdb

import (
	"sync"

	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/core/user"
)

// DB is an in-memory store honouring the same constraints as the postgres schema.
// It is used by tests and by the "memory" database engine.
type DB struct {
	mutex sync.RWMutex
	seq   map[string]int

	users     map[int]*user.User
	tokens    map[string]*user.Token
	schools   map[int]*school.School
	students  map[int]*student.Student
	grades    map[int]*student.Grade
	followUps map[int]*student.FollowUp
}

func NewDB() *DB {
	return &DB{
		seq:       make(map[string]int),
		users:     make(map[int]*user.User),
		tokens:    make(map[string]*user.Token),
		schools:   make(map[int]*school.School),
		students:  make(map[int]*student.Student),
		grades:    make(map[int]*student.Grade),
		followUps: make(map[int]*student.FollowUp),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}
