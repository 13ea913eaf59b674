package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/juror/apps/api/echo"
	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/jury"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
	emailsvc "github.com/trezcool/juror/services/email"
	inmemdb "github.com/trezcool/juror/storage/database/inmem"
	testutil "github.com/trezcool/juror/tests"
)

var t0 = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

type env struct {
	app      *echoapi.Server
	userRepo user.Repository
	clock    *testutil.Clock
	mail     *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) env {
	t.Helper()
	conf := &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Juror",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
	}

	// set up DB & repos
	db, err := inmemdb.Open()
	require.NoError(t, err)
	userRepo := inmemdb.NewUserRepository(db)

	// set up services
	validate, translator := core.NewValidator()
	clock := testutil.NewClock(t0)
	logger := testutil.NewLogger()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	users := user.NewService(userRepo, validate, clock.Now)
	projects := project.NewService(inmemdb.NewProjectRepository(db), users, validate, clock.Now)
	deliverables := deliverable.NewService(
		inmemdb.NewDeliverableRepository(db), projects, users,
		jury.NewSelector(jury.NewLockedRand(1)), mailSvc, validate, logger, clock.Now,
	)
	grades := grade.NewService(inmemdb.NewGradeRepository(db), deliverables, projects, logger, clock.Now)

	// set up server
	app := echoapi.NewServer(conf, logger, &echoapi.Deps{
		UserSvc:        users,
		ProjectSvc:     projects,
		DeliverableSvc: deliverables,
		GradeSvc:       grades,
		Validate:       validate,
		Translator:     translator,
	})
	return env{app: app, userRepo: userRepo, clock: clock, mail: mailSvc}
}

type httpErr struct {
	Error string    `json:"error"`
	Kind  core.Kind `json:"kind,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
}

func (e env) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := e.app.Auth().TokenFor(usr)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

// do sends a JSON request and decodes the response into out when it is not nil.
func (e env) do(t *testing.T, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.app.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func (e env) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := e.do(t, method, tt.path, tt.token, tt.body, nil)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}
