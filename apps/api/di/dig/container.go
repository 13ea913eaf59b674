package dig_container

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/juror/apps/api/echo"
	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/jury"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
	emailsvc "github.com/trezcool/juror/services/email"
	logsvc "github.com/trezcool/juror/services/logger"
	"github.com/trezcool/juror/storage/database"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger("API", conf), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger("DB", conf), conf)
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) *database.Store {
	st, err := database.OpenStore(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}
	return st
}

func newClock() core.Clock { return core.SystemClock }

func newSelector(conf *core.Config) (*jury.Selector, error) {
	seed := conf.Jury.Seed
	if seed == 0 {
		var err error
		if seed, err = jury.NewSeed(); err != nil {
			return nil, err
		}
	}
	return jury.NewSelector(jury.NewLockedRand(seed)), nil
}

func newUserService(st *database.Store, validate *validator.Validate, now core.Clock) *user.Service {
	return user.NewService(st.Users, validate, now)
}

func newProjectService(st *database.Store, users *user.Service, validate *validator.Validate, now core.Clock) *project.Service {
	return project.NewService(st.Projects, users, validate, now)
}

func newDeliverableService(
	st *database.Store,
	projects *project.Service,
	users *user.Service,
	selector *jury.Selector,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
	now core.Clock,
) *deliverable.Service {
	return deliverable.NewService(st.Deliverables, projects, users, selector, mailSvc, validate, logger, now)
}

func newGradeService(st *database.Store, deliverables *deliverable.Service, projects *project.Service, logger core.Logger, now core.Clock) *grade.Service {
	return grade.NewService(st.Grades, deliverables, projects, logger, now)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	users *user.Service,
	projects *project.Service,
	deliverables *deliverable.Service,
	grades *grade.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(conf, logger, &echoapi.Deps{
		UserSvc:        users,
		ProjectSvc:     projects,
		DeliverableSvc: deliverables,
		GradeSvc:       grades,
		Validate:       validate,
		Translator:     translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newClock))
	must(c.Provide(core.NewValidator))
	must(c.Provide(emailsvc.New))
	must(c.Provide(newSelector))
	must(c.Provide(newUserService))
	must(c.Provide(newProjectService))
	must(c.Provide(newDeliverableService))
	must(c.Provide(newGradeService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
