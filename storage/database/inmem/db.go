package inmemdb

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
	"github.com/trezcool/juror/storage/snapshot"
)

type gradeKey struct {
	deliverableID string
	evaluatorID   string
}

// DB holds every table behind one lock. When opened with a path, the whole database is
// written back to that file after every change, before the change is acknowledged.
type DB struct {
	sync.RWMutex
	path string

	users        map[string]*user.User
	projects     map[string]*project.Project
	deliverables map[string]*deliverable.Deliverable
	grades       map[gradeKey]*grade.Grade

	// insertion order, so queries list records as they were created
	userIDs        []string
	projectIDs     []string
	deliverableIDs []string
	gradeKeys      []gradeKey
}

func Open() (*DB, error) {
	db := &DB{}
	db.reset()
	return db, nil
}

// OpenFile opens a database persisted as a JSON document at path, loading it if the file exists.
func OpenFile(path string) (*DB, error) {
	db, _ := Open()
	db.path = path

	s, err := snapshot.ReadFile(path)
	switch {
	case os.IsNotExist(errors.Cause(err)):
		return db, nil
	case err != nil:
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	db.load(s)
	return db, nil
}

func (db *DB) reset() {
	db.users = make(map[string]*user.User)
	db.projects = make(map[string]*project.Project)
	db.deliverables = make(map[string]*deliverable.Deliverable)
	db.grades = make(map[gradeKey]*grade.Grade)
	db.userIDs = nil
	db.projectIDs = nil
	db.deliverableIDs = nil
	db.gradeKeys = nil
}

func (db *DB) load(s snapshot.Snapshot) {
	for _, rec := range s.Users {
		u := rec.ToUser()
		db.users[u.ID] = &u
		db.userIDs = append(db.userIDs, u.ID)
	}
	for _, rec := range s.Projects {
		p := rec.ToProject()
		db.projects[p.ID] = &p
		db.projectIDs = append(db.projectIDs, p.ID)
	}
	for _, rec := range s.Deliverables {
		d := rec.ToDeliverable()
		db.deliverables[d.ID] = &d
		db.deliverableIDs = append(db.deliverableIDs, d.ID)
	}
	for _, rec := range s.Grades {
		g := rec.ToGrade()
		key := gradeKey{g.DeliverableID, g.EvaluatorID}
		db.grades[key] = &g
		db.gradeKeys = append(db.gradeKeys, key)
	}
}

// snapshot must be called with the lock held.
func (db *DB) snapshot() snapshot.Snapshot {
	s := snapshot.New(time.Now().UTC())
	for _, id := range db.userIDs {
		s.Users = append(s.Users, snapshot.FromUser(*db.users[id]))
	}
	for _, id := range db.projectIDs {
		s.Projects = append(s.Projects, snapshot.FromProject(*db.projects[id]))
	}
	for _, id := range db.deliverableIDs {
		s.Deliverables = append(s.Deliverables, snapshot.FromDeliverable(*db.deliverables[id]))
	}
	for _, key := range db.gradeKeys {
		s.Grades = append(s.Grades, snapshot.FromGrade(*db.grades[key]))
	}
	return s
}

// save persists the database, if file-backed. It must be called with the write lock held.
func (db *DB) save() error {
	if db.path == "" {
		return nil
	}
	return errors.Wrap(snapshot.WriteFile(db.path, db.snapshot()), "saving database")
}

// commit applies change and persists it. On a persistence failure the tables are restored
// from the previous document so memory never holds an unsaved change.
func (db *DB) commit(change func() error) error {
	db.Lock()
	defer db.Unlock()

	var before snapshot.Snapshot
	if db.path != "" {
		before = db.snapshot()
	}
	if err := change(); err != nil {
		return err
	}
	if err := db.save(); err != nil {
		db.reset()
		db.load(before)
		return err
	}
	return nil
}

// Reset drops every record.
func (db *DB) Reset() error {
	return db.commit(func() error {
		db.reset()
		return nil
	})
}
