package deliverable

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/jury"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewError(core.KindNotFound, "deliverable not found")
	ErrNotTeamMember = core.NewError(core.KindNotAuthorized, "only members of the project team can do this")
)

const juryAssignedTemplate = "jury_assigned"

type (
	Repository interface {
		CreateDeliverable(ctx context.Context, d Deliverable) (Deliverable, error)
		GetDeliverableByID(ctx context.Context, id string) (Deliverable, error)
		QueryDeliverablesByProject(ctx context.Context, projectID string) ([]Deliverable, error)
		QueryAllDeliverables(ctx context.Context) ([]Deliverable, error)
		UpdateDeliverableLink(ctx context.Context, id, link string) (Deliverable, error)
		// AssignJury stores jurorIDs only if no jury is stored yet. It returns the deliverable
		// as stored afterwards and whether this call stored the jury.
		AssignJury(ctx context.Context, id string, jurorIDs []string) (Deliverable, bool, error)
	}

	ProjectGetter interface {
		Get(ctx context.Context, id string) (project.Project, error)
	}

	UserLister interface {
		QueryAll(ctx context.Context) ([]user.User, error)
	}

	Service struct {
		repo     Repository
		projects ProjectGetter
		users    UserLister
		selector *jury.Selector
		mailSvc  core.EmailService
		validate *validator.Validate
		logger   core.Logger
		now      core.Clock
	}

	// JurorNotification is the data of the jury_assigned e-mail.
	JurorNotification struct {
		Username         string
		ProjectTitle     string
		DeliverableTitle string
		Link             string
		EditDeadline     string
	}
)

func NewService(
	repo Repository,
	projects ProjectGetter,
	users UserLister,
	selector *jury.Selector,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
	now core.Clock,
) *Service {
	return &Service{
		repo:     repo,
		projects: projects,
		users:    users,
		selector: selector,
		mailSvc:  mailSvc,
		validate: validate,
		logger:   logger,
		now:      now,
	}
}

func (svc *Service) Create(ctx context.Context, caller user.User, projectID string, nd NewDeliverable) (Deliverable, error) {
	p, err := svc.projects.Get(ctx, projectID)
	if err != nil {
		return Deliverable{}, err
	}
	if !p.HasMember(caller.Username) {
		return Deliverable{}, ErrNotTeamMember
	}
	if err := nd.Validate(svc.validate); err != nil {
		return Deliverable{}, err
	}
	return svc.repo.CreateDeliverable(ctx, Deliverable{
		ID:                uuid.New().String(),
		ProjectID:         p.ID,
		Title:             nd.Title,
		DueAt:             nd.DueAt,
		JurySize:          nd.JurySize,
		EditWindowMinutes: nd.EditWindowMinutes,
		Link:              nd.Link,
		CreatedAt:         svc.now(),
	})
}

// SetLink replaces the link of the deliverable. An empty link clears it.
func (svc *Service) SetLink(ctx context.Context, caller user.User, id, link string) (Deliverable, error) {
	d, err := svc.repo.GetDeliverableByID(ctx, id)
	if err != nil {
		return Deliverable{}, err
	}
	p, err := svc.projects.Get(ctx, d.ProjectID)
	if err != nil {
		return Deliverable{}, err
	}
	if !p.HasMember(caller.Username) {
		return Deliverable{}, ErrNotTeamMember
	}
	link = core.CleanString(link)
	if err := svc.validate.Var(link, "omitempty,url"); err != nil {
		msg := "link must be a valid URL"
		return Deliverable{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "link", Error: msg})
	}
	if _, err := svc.repo.UpdateDeliverableLink(ctx, id, link); err != nil {
		return Deliverable{}, err
	}
	return svc.Get(ctx, id)
}

// Get returns the deliverable, drawing its jury first if it is due.
func (svc *Service) Get(ctx context.Context, id string) (Deliverable, error) {
	d, err := svc.repo.GetDeliverableByID(ctx, id)
	if err != nil {
		return Deliverable{}, err
	}
	return svc.ensureJury(ctx, d)
}

func (svc *Service) ListByProject(ctx context.Context, projectID string) ([]Deliverable, error) {
	ds, err := svc.repo.QueryDeliverablesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return svc.ensureJuries(ctx, ds)
}

func (svc *Service) ListAll(ctx context.Context) ([]Deliverable, error) {
	ds, err := svc.repo.QueryAllDeliverables(ctx)
	if err != nil {
		return nil, err
	}
	return svc.ensureJuries(ctx, ds)
}

// ListForJuror returns the deliverables the caller has to grade.
func (svc *Service) ListForJuror(ctx context.Context, caller user.User) ([]Deliverable, error) {
	all, err := svc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	ds := make([]Deliverable, 0)
	for _, d := range all {
		if d.HasJuror(caller.ID) {
			ds = append(ds, d)
		}
	}
	return ds, nil
}

func (svc *Service) ensureJuries(ctx context.Context, ds []Deliverable) ([]Deliverable, error) {
	for i := range ds {
		d, err := svc.ensureJury(ctx, ds[i])
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

// ensureJury draws and stores the jury of a due deliverable that has none.
// When several callers race, storage keeps the first jury and everyone gets it back.
func (svc *Service) ensureJury(ctx context.Context, d Deliverable) (Deliverable, error) {
	now := svc.now()
	if d.JuryAssigned() || !d.IsDue(now) {
		return d, nil
	}

	p, err := svc.projects.Get(ctx, d.ProjectID)
	if err != nil {
		return Deliverable{}, errors.Wrap(err, "loading project")
	}
	usrs, err := svc.users.QueryAll(ctx)
	if err != nil {
		return Deliverable{}, errors.Wrap(err, "loading users")
	}
	pool := jury.Eligible(p, usrs)

	ids, ok := svc.selector.AssignIfDue(d, pool, now)
	if !ok {
		// retried on every read until a student outside the team registers
		svc.logger.Debug("no eligible juror", map[string]interface{}{"deliverable_id": d.ID})
		return d, nil
	}

	stored, assigned, err := svc.repo.AssignJury(ctx, d.ID, ids)
	if err != nil {
		return Deliverable{}, errors.Wrap(err, "assigning jury")
	}
	if !assigned {
		return stored, nil // lost the race
	}

	want := d.JurySize
	if want < jury.MinSize {
		want = jury.MinSize
	}
	logData := map[string]interface{}{"deliverable_id": d.ID, "jury_count": len(ids), "jury_size": want}
	if len(ids) < want {
		svc.logger.Warn("jury assigned from a short pool", logData)
	} else {
		svc.logger.Info("jury assigned", logData)
	}
	svc.notifyJurors(p, stored, usrs)
	return stored, nil
}

// notifyJurors e-mails every juror individually.
func (svc *Service) notifyJurors(p project.Project, d Deliverable, usrs []user.User) {
	if svc.mailSvc == nil {
		return
	}
	byID := make(map[string]user.User, len(usrs))
	for _, usr := range usrs {
		byID[usr.ID] = usr
	}

	msgs := make([]*core.EmailMessage, 0, len(d.JuryIDs))
	for _, id := range d.JuryIDs {
		usr, ok := byID[id]
		if !ok || usr.Email == "" {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
			Subject:      fmt.Sprintf("You are on the jury of %q", d.Title),
			TemplateName: juryAssignedTemplate,
			TemplateData: JurorNotification{
				Username:         usr.Username,
				ProjectTitle:     p.Title,
				DeliverableTitle: d.Title,
				Link:             d.Link,
				EditDeadline:     d.EditDeadline().Format("2006-01-02 15:04 MST"),
			},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
}
