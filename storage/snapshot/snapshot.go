// Package snapshot defines the single-document shape of the whole database,
// used by the file-backed in-memory store and by the admin export/import commands.
package snapshot

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
)

const Version = 1

type (
	Snapshot struct {
		Version      int           `json:"version"`
		TakenAt      time.Time     `json:"taken_at"`
		Users        []User        `json:"users"`
		Projects     []Project     `json:"projects"`
		Deliverables []Deliverable `json:"deliverables"`
		Grades       []Grade       `json:"grades"`
	}

	User struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email,omitempty"`
		Role      string `json:"role"`
		CreatedAt int64  `json:"created_at"` // unix ms
	}

	Project struct {
		ID            string   `json:"id"`
		Title         string   `json:"title"`
		TeamUsernames []string `json:"team_usernames"`
		CreatedBy     string   `json:"created_by"`
		CreatedAt     int64    `json:"created_at"`
	}

	Deliverable struct {
		ID                string   `json:"id"`
		ProjectID         string   `json:"project_id"`
		Title             string   `json:"title"`
		DueAt             int64    `json:"due_at"`
		JurySize          int      `json:"jury_size"`
		EditWindowMinutes int      `json:"edit_window_minutes"`
		Link              string   `json:"link,omitempty"`
		JuryUserIDs       []string `json:"jury_user_ids"`
		CreatedAt         int64    `json:"created_at"`
	}

	Grade struct {
		ID            string  `json:"id"`
		DeliverableID string  `json:"deliverable_id"`
		EvaluatorID   string  `json:"evaluator_id"`
		Value         float64 `json:"value"`
		CreatedAt     int64   `json:"created_at"`
		UpdatedAt     int64   `json:"updated_at"`
	}
)

func New(takenAt time.Time) Snapshot {
	return Snapshot{
		Version:      Version,
		TakenAt:      takenAt,
		Users:        make([]User, 0),
		Projects:     make([]Project, 0),
		Deliverables: make([]Deliverable, 0),
		Grades:       make([]Grade, 0),
	}
}

func toMillis(t time.Time) int64     { return t.UnixMilli() }
func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func FromUser(u user.User) User {
	return User{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role), CreatedAt: toMillis(u.CreatedAt)}
}

func (u User) ToUser() user.User {
	return user.User{ID: u.ID, Username: u.Username, Email: u.Email, Role: user.Role(u.Role), CreatedAt: fromMillis(u.CreatedAt)}
}

func FromProject(p project.Project) Project {
	return Project{ID: p.ID, Title: p.Title, TeamUsernames: p.TeamUsernames, CreatedBy: p.CreatedBy, CreatedAt: toMillis(p.CreatedAt)}
}

func (p Project) ToProject() project.Project {
	return project.Project{ID: p.ID, Title: p.Title, TeamUsernames: p.TeamUsernames, CreatedBy: p.CreatedBy, CreatedAt: fromMillis(p.CreatedAt)}
}

func FromDeliverable(d deliverable.Deliverable) Deliverable {
	jury := d.JuryIDs
	if jury == nil {
		jury = make([]string, 0)
	}
	return Deliverable{
		ID:                d.ID,
		ProjectID:         d.ProjectID,
		Title:             d.Title,
		DueAt:             toMillis(d.DueAt),
		JurySize:          d.JurySize,
		EditWindowMinutes: d.EditWindowMinutes,
		Link:              d.Link,
		JuryUserIDs:       jury,
		CreatedAt:         toMillis(d.CreatedAt),
	}
}

func (d Deliverable) ToDeliverable() deliverable.Deliverable {
	return deliverable.Deliverable{
		ID:                d.ID,
		ProjectID:         d.ProjectID,
		Title:             d.Title,
		DueAt:             fromMillis(d.DueAt),
		JurySize:          d.JurySize,
		EditWindowMinutes: d.EditWindowMinutes,
		Link:              d.Link,
		JuryIDs:           d.JuryUserIDs,
		CreatedAt:         fromMillis(d.CreatedAt),
	}
}

func FromGrade(g grade.Grade) Grade {
	return Grade{
		ID:            g.ID,
		DeliverableID: g.DeliverableID,
		EvaluatorID:   g.EvaluatorID,
		Value:         g.Value,
		CreatedAt:     toMillis(g.CreatedAt),
		UpdatedAt:     toMillis(g.UpdatedAt),
	}
}

func (g Grade) ToGrade() grade.Grade {
	return grade.Grade{
		ID:            g.ID,
		DeliverableID: g.DeliverableID,
		EvaluatorID:   g.EvaluatorID,
		Value:         g.Value,
		CreatedAt:     fromMillis(g.CreatedAt),
		UpdatedAt:     fromMillis(g.UpdatedAt),
	}
}

func Encode(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(s), "encoding snapshot")
}

func Decode(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, errors.Wrap(err, "decoding snapshot")
	}
	if s.Version != Version {
		return Snapshot{}, errors.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}

// ReadFile decodes the snapshot at path. A missing file yields os.ErrNotExist.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// WriteFile replaces the file at path with s: it writes a temporary file then renames it,
// so readers never see a partial document.
func WriteFile(path string, s Snapshot) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, s); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "replacing snapshot")
}

// Stores are the repositories a snapshot is taken from and restored into.
type Stores struct {
	Users        user.Repository
	Projects     project.Repository
	Deliverables deliverable.Repository
	Grades       grade.Repository
}

// Take reads every record of st.
func Take(ctx context.Context, st Stores, now time.Time) (Snapshot, error) {
	s := New(now)

	usrs, err := st.Users.QueryAllUsers(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying users")
	}
	for _, u := range usrs {
		s.Users = append(s.Users, FromUser(u))
	}

	projects, err := st.Projects.QueryAllProjects(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying projects")
	}
	for _, p := range projects {
		s.Projects = append(s.Projects, FromProject(p))
	}

	ds, err := st.Deliverables.QueryAllDeliverables(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying deliverables")
	}
	for _, d := range ds {
		s.Deliverables = append(s.Deliverables, FromDeliverable(d))
	}

	grades, err := st.Grades.QueryAllGrades(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying grades")
	}
	for _, g := range grades {
		s.Grades = append(s.Grades, FromGrade(g))
	}
	return s, nil
}

// Restore writes every record of s into st, parents first. st is expected to be empty.
func Restore(ctx context.Context, st Stores, s Snapshot) error {
	for _, u := range s.Users {
		if _, err := st.Users.CreateUser(ctx, u.ToUser()); err != nil {
			return errors.Wrapf(err, "restoring user %s", u.Username)
		}
	}
	for _, p := range s.Projects {
		if _, err := st.Projects.CreateProject(ctx, p.ToProject()); err != nil {
			return errors.Wrapf(err, "restoring project %s", p.ID)
		}
	}
	for _, d := range s.Deliverables {
		if _, err := st.Deliverables.CreateDeliverable(ctx, d.ToDeliverable()); err != nil {
			return errors.Wrapf(err, "restoring deliverable %s", d.ID)
		}
	}
	for _, g := range s.Grades {
		if _, err := st.Grades.UpsertGrade(ctx, g.ToGrade()); err != nil {
			return errors.Wrapf(err, "restoring grade %s", g.ID)
		}
	}
	return nil
}
