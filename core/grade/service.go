package grade

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
)

var (
	ErrCannotView = core.NewError(core.KindNotAuthorized, "only the project team and supervisors can see this deliverable")

	insufficientGradesNote = "need at least 3 grades"
)

type (
	DeliverableGetter interface {
		Get(ctx context.Context, id string) (deliverable.Deliverable, error)
		ListByProject(ctx context.Context, projectID string) ([]deliverable.Deliverable, error)
		ListForJuror(ctx context.Context, caller user.User) ([]deliverable.Deliverable, error)
	}

	ProjectGetter interface {
		Get(ctx context.Context, id string) (project.Project, error)
		ListAll(ctx context.Context, caller user.User) ([]project.Project, error)
		ListForMember(ctx context.Context, caller user.User) ([]project.Project, error)
	}

	Service struct {
		ledger       *Ledger
		repo         Repository
		deliverables DeliverableGetter
		projects     ProjectGetter
		logger       core.Logger
		now          core.Clock
	}
)

func NewService(repo Repository, deliverables DeliverableGetter, projects ProjectGetter, logger core.Logger, now core.Clock) *Service {
	return &Service{
		ledger:       NewLedger(repo),
		repo:         repo,
		deliverables: deliverables,
		projects:     projects,
		logger:       logger,
		now:          now,
	}
}

// Summary returns the anonymous view of a deliverable to its team or to a supervisor.
func (svc *Service) Summary(ctx context.Context, caller user.User, deliverableID string) (Summary, error) {
	d, err := svc.deliverables.Get(ctx, deliverableID)
	if err != nil {
		return Summary{}, err
	}
	p, err := svc.projects.Get(ctx, d.ProjectID)
	if err != nil {
		return Summary{}, err
	}
	if !caller.IsSupervisor() && !p.HasMember(caller.Username) {
		return Summary{}, ErrCannotView
	}
	return svc.summarize(ctx, d)
}

// ProjectSummaries returns the summaries of every deliverable of a project.
func (svc *Service) ProjectSummaries(ctx context.Context, caller user.User, projectID string) ([]Summary, error) {
	p, err := svc.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !caller.IsSupervisor() && !p.HasMember(caller.Username) {
		return nil, ErrCannotView
	}
	return svc.projectSummaries(ctx, p)
}

// Reports lists projects with their deliverable summaries:
// every project for a supervisor, the caller's own projects for a student.
func (svc *Service) Reports(ctx context.Context, caller user.User) ([]ProjectReport, error) {
	var (
		projects []project.Project
		err      error
	)
	if caller.IsSupervisor() {
		projects, err = svc.projects.ListAll(ctx, caller)
	} else {
		projects, err = svc.projects.ListForMember(ctx, caller)
	}
	if err != nil {
		return nil, err
	}

	reports := make([]ProjectReport, 0, len(projects))
	for _, p := range projects {
		summaries, err := svc.projectSummaries(ctx, p)
		if err != nil {
			return nil, err
		}
		reports = append(reports, ProjectReport{Project: p, Deliverables: summaries})
	}
	return reports, nil
}

// Tasks lists the deliverables the caller grades, each with the caller's own grade only.
func (svc *Service) Tasks(ctx context.Context, caller user.User) ([]JurorTask, error) {
	ds, err := svc.deliverables.ListForJuror(ctx, caller)
	if err != nil {
		return nil, err
	}
	tasks := make([]JurorTask, 0, len(ds))
	for _, d := range ds {
		task, err := svc.task(ctx, caller, d)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// MyGrade returns the caller's task for one deliverable.
func (svc *Service) MyGrade(ctx context.Context, caller user.User, deliverableID string) (JurorTask, error) {
	d, err := svc.deliverables.Get(ctx, deliverableID)
	if err != nil {
		return JurorTask{}, err
	}
	if !d.HasJuror(caller.ID) {
		return JurorTask{}, core.ErrNotJuror
	}
	return svc.task(ctx, caller, d)
}

// Submit records the caller's grade of a deliverable.
func (svc *Service) Submit(ctx context.Context, caller user.User, deliverableID, raw string) (Grade, error) {
	d, err := svc.deliverables.Get(ctx, deliverableID)
	if err != nil {
		return Grade{}, err
	}
	g, err := svc.ledger.SubmitOrUpdate(ctx, d, caller, raw, svc.now())
	if err != nil {
		return Grade{}, err
	}
	svc.logger.Info("grade submitted", map[string]interface{}{"deliverable_id": d.ID})
	return g, nil
}

func (svc *Service) projectSummaries(ctx context.Context, p project.Project) ([]Summary, error) {
	ds, err := svc.deliverables.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(ds))
	for _, d := range ds {
		s, err := svc.summarize(ctx, d)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (svc *Service) summarize(ctx context.Context, d deliverable.Deliverable) (Summary, error) {
	grades, err := svc.repo.QueryGradesByDeliverable(ctx, d.ID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "loading grades")
	}
	return Summarize(d, grades, svc.now()), nil
}

func (svc *Service) task(ctx context.Context, caller user.User, d deliverable.Deliverable) (JurorTask, error) {
	p, err := svc.projects.Get(ctx, d.ProjectID)
	if err != nil {
		return JurorTask{}, err
	}
	now := svc.now()
	task := JurorTask{
		DeliverableID: d.ID,
		ProjectTitle:  p.Title,
		Title:         d.Title,
		Link:          d.Link,
		DueAt:         d.DueAt,
		EditDeadline:  d.EditDeadline(),
		CanEdit:       d.CanEdit(now),
		Status:        StatusAt(d, now),
	}
	g, err := svc.repo.GetGrade(ctx, d.ID, caller.ID)
	switch {
	case err == nil:
		task.MyGrade = &g
	case !errors.Is(err, core.ErrNotFound):
		return JurorTask{}, errors.Wrap(err, "loading grade")
	}
	return task, nil
}

// Summarize builds the anonymous view of d from its grades.
func Summarize(d deliverable.Deliverable, grades []Grade, now time.Time) Summary {
	values := make([]float64, 0, len(grades))
	for _, g := range grades {
		values = append(values, g.Value)
	}
	sort.Float64s(values)

	s := Summary{
		DeliverableID:     d.ID,
		ProjectID:         d.ProjectID,
		Title:             d.Title,
		Link:              d.Link,
		DueAt:             d.DueAt,
		EditDeadline:      d.EditDeadline(),
		EditWindowMinutes: d.EditWindowMinutes,
		JurySize:          d.JurySize,
		JuryCount:         len(d.JuryIDs),
		GradeCount:        len(values),
		Values:            values,
		Status:            StatusAt(d, now),
	}
	if final, ok := FinalScore(values); ok {
		s.Final = &final
	} else {
		s.FinalNote = insufficientGradesNote
	}
	return s
}
