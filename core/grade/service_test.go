package grade_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/jury"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
	inmemdb "github.com/trezcool/juror/storage/database/inmem"
	testutil "github.com/trezcool/juror/tests"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc         *grade.Service
	gradeRepo   grade.Repository
	clock       *testutil.Clock
	project     project.Project
	deliverable deliverable.Deliverable
	ana, sup    user.User
	c1, c2, c3  user.User
}

// setup creates the project of ana and a deliverable due one hour after t0.
// Exactly three students sit outside the team, so all of them make the jury.
func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	userRepo := inmemdb.NewUserRepository(db)
	gradeRepo := inmemdb.NewGradeRepository(db)
	validate := testutil.NewValidator()
	clock := testutil.NewClock(t0)
	logger := testutil.NewLogger()
	users := user.NewService(userRepo, validate, clock.Now)
	projects := project.NewService(inmemdb.NewProjectRepository(db), users, validate, clock.Now)
	deliverables := deliverable.NewService(
		inmemdb.NewDeliverableRepository(db), projects, users,
		jury.NewSelector(jury.NewLockedRand(7)), nil, validate, logger, clock.Now,
	)

	f := fixture{
		svc:       grade.NewService(gradeRepo, deliverables, projects, logger, clock.Now),
		gradeRepo: gradeRepo,
		clock:     clock,
		ana:       testutil.CreateUser(t, userRepo, "ana", user.RoleStudent, t0),
		sup:       testutil.CreateUser(t, userRepo, "prof", user.RoleSupervisor, t0),
		c1:        testutil.CreateUser(t, userRepo, "c1", user.RoleStudent, t0),
		c2:        testutil.CreateUser(t, userRepo, "c2", user.RoleStudent, t0),
		c3:        testutil.CreateUser(t, userRepo, "c3", user.RoleStudent, t0),
	}
	f.project, err = projects.Create(ctx, f.ana, project.NewProject{Title: "Rockets", Team: []string{"ana"}})
	require.NoError(t, err)
	f.deliverable, err = deliverables.Create(ctx, f.ana, f.project.ID, deliverable.NewDeliverable{
		Title:             "Final report",
		DueAt:             t0.Add(time.Hour),
		JurySize:          3,
		EditWindowMinutes: 30,
	})
	require.NoError(t, err)
	return f
}

func (f fixture) submit(t *testing.T, caller user.User, raw string) grade.Grade {
	t.Helper()
	g, err := f.svc.Submit(context.Background(), caller, f.deliverable.ID, raw)
	require.NoError(t, err)
	return g
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.deliverable.ID

	_, err := f.svc.Submit(ctx, f.c1, id, "7")
	assert.True(t, errors.Is(err, core.ErrNotJuror), "no jury before the due time")

	due := f.deliverable.DueAt
	f.clock.Set(due)
	g := f.submit(t, f.c1, "7.005")
	assert.Equal(t, 7.01, g.Value)
	assert.Equal(t, due, g.CreatedAt)

	f.clock.Set(due.Add(10 * time.Minute))
	updated := f.submit(t, f.c1, "6")
	assert.Equal(t, g.ID, updated.ID)
	assert.Equal(t, 6.0, updated.Value)
	assert.Equal(t, due, updated.CreatedAt)
	assert.Equal(t, due.Add(10*time.Minute), updated.UpdatedAt)

	grades, err := f.gradeRepo.QueryGradesByDeliverable(ctx, id)
	require.NoError(t, err)
	assert.Len(t, grades, 1)

	f.clock.Set(f.deliverable.EditDeadline())
	f.submit(t, f.c2, "8")

	tests := []struct {
		name   string
		caller user.User
		raw    string
		at     time.Time
		want   error
	}{
		{name: "team member", caller: f.ana, raw: "10", at: due, want: core.ErrNotJuror},
		{name: "supervisor", caller: f.sup, raw: "10", at: due, want: core.ErrNotJuror},
		{name: "out of range", caller: f.c3, raw: "11", at: due, want: core.ErrInvalidValue},
		{name: "not a number", caller: f.c3, raw: "ten", at: due, want: core.ErrInvalidValue},
		{name: "window closed", caller: f.c3, raw: "8", at: f.deliverable.EditDeadline().Add(time.Nanosecond), want: core.ErrEditWindowClosed},
		{name: "non juror after the window", caller: f.ana, raw: "11", at: due.Add(time.Hour), want: core.ErrNotJuror},
		{name: "bad value after the window", caller: f.c3, raw: "11", at: due.Add(time.Hour), want: core.ErrEditWindowClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.clock.Set(tt.at)
			_, err := f.svc.Submit(ctx, tt.caller, id, tt.raw)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	grades, err = f.gradeRepo.QueryGradesByDeliverable(ctx, id)
	require.NoError(t, err)
	assert.Len(t, grades, 2, "rejected submissions store nothing")

	_, err = f.svc.Submit(ctx, f.c1, "missing", "5")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.deliverable.ID

	s, err := f.svc.Summary(ctx, f.ana, id)
	require.NoError(t, err)
	assert.Equal(t, grade.StatusPending, s.Status)
	assert.Equal(t, 0, s.JuryCount)
	assert.Nil(t, s.Final)

	f.clock.Set(f.deliverable.DueAt)
	f.submit(t, f.c1, "4")
	f.submit(t, f.c2, "9")

	s, err = f.svc.Summary(ctx, f.ana, id)
	require.NoError(t, err)
	assert.Equal(t, grade.StatusGrading, s.Status)
	assert.Equal(t, 3, s.JuryCount)
	assert.Equal(t, 2, s.GradeCount)
	assert.Nil(t, s.Final)
	assert.Equal(t, "need at least 3 grades", s.FinalNote)

	f.submit(t, f.c3, "5")
	f.clock.Advance(time.Hour)

	s, err = f.svc.Summary(ctx, f.sup, id)
	require.NoError(t, err)
	assert.Equal(t, grade.StatusClosed, s.Status)
	assert.Equal(t, []float64{4, 5, 9}, s.Values)
	if assert.NotNil(t, s.Final) {
		assert.Equal(t, 5.0, *s.Final)
	}
	assert.Empty(t, s.FinalNote)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	for _, juror := range []user.User{f.c1, f.c2, f.c3} {
		assert.NotContains(t, string(raw), juror.ID)
	}

	_, err = f.svc.Summary(ctx, f.c1, id)
	assert.True(t, errors.Is(err, core.ErrNotAuthorized))
}

func TestService_Tasks(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.clock.Set(f.deliverable.DueAt)

	tasks, err := f.svc.Tasks(ctx, f.c1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].MyGrade)
	assert.True(t, tasks[0].CanEdit)
	assert.Equal(t, "Rockets", tasks[0].ProjectTitle)

	f.submit(t, f.c1, "8.5")
	f.submit(t, f.c2, "3")

	task, err := f.svc.MyGrade(ctx, f.c1, f.deliverable.ID)
	require.NoError(t, err)
	if assert.NotNil(t, task.MyGrade) {
		assert.Equal(t, 8.5, task.MyGrade.Value)
		assert.Equal(t, f.c1.ID, task.MyGrade.EvaluatorID)
	}

	raw, err := json.Marshal(task)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), f.c2.ID, "other grades stay hidden")

	_, err = f.svc.MyGrade(ctx, f.ana, f.deliverable.ID)
	assert.True(t, errors.Is(err, core.ErrNotJuror))

	tasks, err = f.svc.Tasks(ctx, f.ana)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	f.clock.Set(f.deliverable.EditDeadline().Add(time.Second))
	tasks, err = f.svc.Tasks(ctx, f.c1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].CanEdit)
	assert.Equal(t, grade.StatusClosed, tasks[0].Status)
}

func TestService_Reports(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.clock.Set(f.deliverable.DueAt)
	f.submit(t, f.c1, "6")
	f.submit(t, f.c2, "7")
	f.submit(t, f.c3, "10")

	reports, err := f.svc.Reports(ctx, f.sup)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, f.project.ID, reports[0].Project.ID)
	require.Len(t, reports[0].Deliverables, 1)
	if assert.NotNil(t, reports[0].Deliverables[0].Final) {
		assert.Equal(t, 7.0, *reports[0].Deliverables[0].Final)
	}

	reports, err = f.svc.Reports(ctx, f.ana)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	reports, err = f.svc.Reports(ctx, f.c1)
	require.NoError(t, err)
	assert.Empty(t, reports)

	summaries, err := f.svc.ProjectSummaries(ctx, f.ana, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	_, err = f.svc.ProjectSummaries(ctx, f.c2, f.project.ID)
	assert.True(t, errors.Is(err, core.ErrNotAuthorized))
}
