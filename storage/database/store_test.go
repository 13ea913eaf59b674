package database_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
	"github.com/trezcool/juror/storage/database"
	"github.com/trezcool/juror/storage/snapshot"
)

var t0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func openStores(t *testing.T) map[string]*database.Store {
	t.Helper()
	confs := map[string]core.DatabaseConfig{
		"memory":      {Engine: database.EngineMemory},
		"memory-file": {Engine: database.EngineMemory, Path: filepath.Join(t.TempDir(), "juror.json")},
		"sqlite":      {Engine: database.EngineSQLite},
	}
	stores := make(map[string]*database.Store, len(confs))
	for name, dbConf := range confs {
		st, err := database.OpenStore(&core.Config{Database: dbConf})
		require.NoError(t, err, name)
		t.Cleanup(func() { _ = st.Close() })
		stores[name] = st
	}
	return stores
}

func seed(t *testing.T, st *database.Store) (user.User, project.Project, deliverable.Deliverable) {
	t.Helper()
	ctx := context.Background()

	ana, err := st.Users.CreateUser(ctx, user.User{ID: "u-ana", Username: "Ana", Email: "ana@example.com", Role: user.RoleStudent, CreatedAt: t0})
	require.NoError(t, err)
	_, err = st.Users.CreateUser(ctx, user.User{ID: "u-bob", Username: "bob", Role: user.RoleStudent, CreatedAt: t0.Add(time.Second)})
	require.NoError(t, err)

	p, err := st.Projects.CreateProject(ctx, project.Project{ID: "p-1", Title: "Rockets", TeamUsernames: []string{"Ana"}, CreatedBy: ana.ID, CreatedAt: t0})
	require.NoError(t, err)

	d, err := st.Deliverables.CreateDeliverable(ctx, deliverable.Deliverable{
		ID: "d-1", ProjectID: p.ID, Title: "Report", DueAt: t0.Add(time.Hour), JurySize: 3, EditWindowMinutes: 30, CreatedAt: t0,
	})
	require.NoError(t, err)
	return ana, p, d
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ana, _, _ := seed(t, st)
			assert.Equal(t, "Ana", ana.Username)
			assert.Equal(t, t0, ana.CreatedAt)

			got, err := st.Users.GetUserByUsername(ctx, "ANA")
			assert.NoError(t, err)
			assert.Equal(t, ana, got)

			_, err = st.Users.CreateUser(ctx, user.User{ID: "u-x", Username: "aNa", Role: user.RoleStudent, CreatedAt: t0})
			assert.Equal(t, user.ErrUsernameExists, errors.Cause(err))

			_, err = st.Users.GetUserByID(ctx, "missing")
			assert.True(t, errors.Is(err, core.ErrNotFound))

			all, err := st.Users.QueryAllUsers(ctx)
			assert.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestStore_ProjectsAndDeliverables(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, p, d := seed(t, st)

			got, err := st.Projects.GetProjectByID(ctx, p.ID)
			assert.NoError(t, err)
			assert.Equal(t, []string{"Ana"}, got.TeamUsernames)

			_, err = st.Projects.GetProjectByID(ctx, "missing")
			assert.True(t, errors.Is(err, core.ErrNotFound))

			assert.Empty(t, d.JuryIDs)
			assert.Equal(t, t0.Add(time.Hour), d.DueAt)

			d, err = st.Deliverables.UpdateDeliverableLink(ctx, d.ID, "https://example.com/r")
			assert.NoError(t, err)
			assert.Equal(t, "https://example.com/r", d.Link)

			_, err = st.Deliverables.UpdateDeliverableLink(ctx, "missing", "https://example.com")
			assert.True(t, errors.Is(err, core.ErrNotFound))

			ds, err := st.Deliverables.QueryDeliverablesByProject(ctx, p.ID)
			assert.NoError(t, err)
			assert.Len(t, ds, 1)

			ds, err = st.Deliverables.QueryDeliverablesByProject(ctx, "other")
			assert.NoError(t, err)
			assert.Empty(t, ds)
		})
	}
}

func TestStore_AssignJuryOnce(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, d := seed(t, st)

			first, assigned, err := st.Deliverables.AssignJury(ctx, d.ID, []string{"j1", "j2", "j3"})
			assert.NoError(t, err)
			assert.True(t, assigned)
			assert.Equal(t, []string{"j1", "j2", "j3"}, first.JuryIDs)

			second, assigned, err := st.Deliverables.AssignJury(ctx, d.ID, []string{"j4", "j5", "j6"})
			assert.NoError(t, err)
			assert.False(t, assigned)
			assert.Equal(t, first.JuryIDs, second.JuryIDs)

			_, _, err = st.Deliverables.AssignJury(ctx, "missing", []string{"j1"})
			assert.True(t, errors.Is(err, core.ErrNotFound))
		})
	}
}

func TestStore_AssignJuryConcurrently(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, d := seed(t, st)

			juries := [][]string{{"a1", "a2", "a3"}, {"b1", "b2", "b3"}, {"c1", "c2", "c3"}, {"d1", "d2", "d3"}}
			results := make([][]string, len(juries))
			won := make([]bool, len(juries))
			var wg sync.WaitGroup
			for i := range juries {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					stored, assigned, err := st.Deliverables.AssignJury(ctx, d.ID, juries[i])
					assert.NoError(t, err)
					results[i] = stored.JuryIDs
					won[i] = assigned
				}(i)
			}
			wg.Wait()

			winners := 0
			for _, w := range won {
				if w {
					winners++
				}
			}
			assert.Equal(t, 1, winners)

			for _, r := range results[1:] {
				assert.Equal(t, results[0], r)
			}
			assert.Contains(t, juries, results[0])
		})
	}
}

func TestStore_UpsertGrade(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ana, _, d := seed(t, st)

			g, err := st.Grades.UpsertGrade(ctx, grade.Grade{
				ID: "g-1", DeliverableID: d.ID, EvaluatorID: ana.ID, Value: 7.5, CreatedAt: t0, UpdatedAt: t0,
			})
			assert.NoError(t, err)
			assert.Equal(t, 7.5, g.Value)

			later := t0.Add(10 * time.Minute)
			g, err = st.Grades.UpsertGrade(ctx, grade.Grade{
				ID: "g-2", DeliverableID: d.ID, EvaluatorID: ana.ID, Value: 8.25, CreatedAt: later, UpdatedAt: later,
			})
			assert.NoError(t, err)
			assert.Equal(t, "g-1", g.ID)
			assert.Equal(t, 8.25, g.Value)
			assert.Equal(t, t0, g.CreatedAt)
			assert.Equal(t, later, g.UpdatedAt)

			grades, err := st.Grades.QueryGradesByDeliverable(ctx, d.ID)
			assert.NoError(t, err)
			assert.Len(t, grades, 1)

			_, err = st.Grades.GetGrade(ctx, d.ID, "someone-else")
			assert.True(t, errors.Is(err, core.ErrNotFound))
		})
	}
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := openStores(t)
	src := stores["sqlite"]
	ana, _, d := seed(t, src)
	_, _, err := src.Deliverables.AssignJury(ctx, d.ID, []string{ana.ID})
	require.NoError(t, err)
	_, err = src.Grades.UpsertGrade(ctx, grade.Grade{ID: "g-1", DeliverableID: d.ID, EvaluatorID: ana.ID, Value: 9, CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)

	s, err := snapshot.Take(ctx, src.Stores, t0)
	require.NoError(t, err)

	dst := stores["memory"]
	require.NoError(t, snapshot.Restore(ctx, dst.Stores, s))

	restored, err := snapshot.Take(ctx, dst.Stores, t0)
	require.NoError(t, err)
	assert.Equal(t, s, restored)

	require.NoError(t, dst.Reset(ctx))
	require.NoError(t, src.Reset(ctx))
	for _, st := range []*database.Store{src, dst} {
		empty, err := snapshot.Take(ctx, st.Stores, t0)
		assert.NoError(t, err)
		assert.Equal(t, snapshot.New(t0), empty)
	}
}
