package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/juror/apps/api/echo"
	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
	testutil "github.com/trezcool/juror/tests"
)

func Test_userApi(t *testing.T) {
	e := setup(t)

	var session echoapi.SessionResponse
	rec := e.do(t, http.MethodPost, "/v1/users/register", "", user.NewUser{Username: "Ana", Email: "ana@example.com", Role: user.RoleStudent}, &session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Ana", session.User.Username)

	var me user.User
	rec = e.do(t, http.MethodGet, "/v1/users/me", session.Token, nil, &me)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.User.ID, me.ID)

	var fldErrs map[string]string
	rec = e.do(t, http.MethodPost, "/v1/users/register", "", user.NewUser{Username: "ana", Role: user.RoleStudent}, &fldErrs)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fldErrs, "username")

	rec = e.do(t, http.MethodPost, "/v1/users/register", "", map[string]string{"username": "bob", "role": "dean"}, &fldErrs)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, fldErrs, "role")

	var login echoapi.SessionResponse
	rec = e.do(t, http.MethodPost, "/v1/users/login", "", echoapi.LoginRequest{Username: " ANA "}, &login)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.User.ID, login.User.ID)

	var refreshed echoapi.LoginResponse
	rec = e.do(t, http.MethodPost, "/v1/users/token-refresh", login.Token, nil, &refreshed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, refreshed.Token)

	var herr httpErr
	rec = e.do(t, http.MethodGet, "/v1/users/me", "", nil, &herr)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing or malformed jwt", herr.Error)

	e.run(t, []httpTest{
		{name: "unknown username", method: http.MethodPost, path: "/v1/users/login", body: echoapi.LoginRequest{Username: "zoe"}, wantCode: http.StatusNotFound},
		{name: "blank username", method: http.MethodPost, path: "/v1/users/login", body: echoapi.LoginRequest{Username: " "}, wantCode: http.StatusBadRequest},
		{name: "bad token", path: "/v1/users/me", token: "not-a-jwt", wantCode: http.StatusUnauthorized},
		{name: "unknown user", path: "/v1/users/me", token: e.token(t, user.User{ID: "ghost", Username: "ghost"}), wantCode: http.StatusUnauthorized},
	})
}

func Test_gradingFlow(t *testing.T) {
	e := setup(t)

	ana := testutil.CreateUser(t, e.userRepo, "ana", user.RoleStudent, t0)
	sup := testutil.CreateUser(t, e.userRepo, "prof", user.RoleSupervisor, t0)
	jurors := []user.User{
		testutil.CreateUser(t, e.userRepo, "c1", user.RoleStudent, t0),
		testutil.CreateUser(t, e.userRepo, "c2", user.RoleStudent, t0),
		testutil.CreateUser(t, e.userRepo, "c3", user.RoleStudent, t0),
	}
	anaToken, supToken := e.token(t, ana), e.token(t, sup)

	// project and deliverable
	var p project.Project
	rec := e.do(t, http.MethodPost, "/v1/projects", anaToken, map[string]string{"title": "Rockets", "team": "ana"}, &p)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"ana"}, p.TeamUsernames)

	var d deliverable.Deliverable
	rec = e.do(t, http.MethodPost, "/v1/projects/"+p.ID+"/deliverables", anaToken, deliverable.NewDeliverable{
		Title:             "Final report",
		DueAt:             t0.Add(time.Hour),
		JurySize:          3,
		EditWindowMinutes: 60,
	}, &d)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	gradePath := "/v1/deliverables/" + d.ID + "/grade"
	c1Token := e.token(t, jurors[0])

	e.run(t, []httpTest{
		{name: "supervisor cannot create projects", method: http.MethodPost, path: "/v1/projects", token: supToken, body: map[string]string{"title": "T", "team": "prof"}, wantCode: http.StatusForbidden},
		{name: "outsider cannot add deliverables", method: http.MethodPost, path: "/v1/projects/" + p.ID + "/deliverables", token: c1Token, body: deliverable.NewDeliverable{Title: "D", DueAt: t0, JurySize: 3, EditWindowMinutes: 5}, wantCode: http.StatusForbidden},
		{name: "unknown project", path: "/v1/projects/missing", token: anaToken, wantCode: http.StatusNotFound},
		{name: "no jury before the due time", method: http.MethodPut, path: gradePath, token: c1Token, body: map[string]interface{}{"value": 7}, wantCode: http.StatusForbidden},
	})

	// due: the jury is drawn on the next read
	e.clock.Set(d.DueAt)
	var tasks []grade.JurorTask
	rec = e.do(t, http.MethodGet, "/v1/jury/tasks", c1Token, nil, &tasks)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].CanEdit)
	assert.Len(t, e.mail.SentMessages(), 3)

	values := []interface{}{"7.005", 9, 4}
	for i, juror := range jurors {
		var g grade.Grade
		rec = e.do(t, http.MethodPut, gradePath, e.token(t, juror), map[string]interface{}{"value": values[i]}, &g)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var task grade.JurorTask
	rec = e.do(t, http.MethodGet, gradePath, c1Token, nil, &task)
	require.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, task.MyGrade) {
		assert.Equal(t, 7.01, task.MyGrade.Value)
	}

	var herr httpErr
	rec = e.do(t, http.MethodPut, gradePath, c1Token, map[string]interface{}{"value": 11}, &herr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, core.KindInvalidValue, herr.Kind)

	rec = e.do(t, http.MethodPut, gradePath, anaToken, map[string]interface{}{"value": 10}, &herr)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, core.KindNotJuror, herr.Kind)

	// summaries hide jurors
	var s grade.Summary
	rec = e.do(t, http.MethodGet, "/v1/deliverables/"+d.ID, anaToken, nil, &s)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{4, 7.01, 9}, s.Values)
	if assert.NotNil(t, s.Final) {
		assert.Equal(t, 7.01, *s.Final)
	}
	for _, juror := range jurors {
		assert.NotContains(t, rec.Body.String(), juror.ID)
	}

	rec = e.do(t, http.MethodGet, "/v1/deliverables/"+d.ID, c1Token, nil, &herr)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var reports []grade.ProjectReport
	rec = e.do(t, http.MethodGet, "/v1/projects", supToken, nil, &reports)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, reports, 1)
	assert.Len(t, reports[0].Deliverables, 1)

	var report grade.ProjectReport
	rec = e.do(t, http.MethodGet, "/v1/projects/"+p.ID, anaToken, nil, &report)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, p.ID, report.Project.ID)

	// link editing stays with the team
	var linked deliverable.Deliverable
	rec = e.do(t, http.MethodPut, "/v1/deliverables/"+d.ID+"/link", anaToken, echoapi.LinkRequest{Link: "https://example.com/r"}, &linked)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/r", linked.Link)

	// window closed
	e.clock.Set(d.EditDeadline().Add(time.Second))
	rec = e.do(t, http.MethodPut, gradePath, c1Token, map[string]interface{}{"value": "8"}, &herr)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, core.KindEditWindowClosed, herr.Kind)

	e.run(t, []httpTest{
		{name: "outsider cannot edit link", method: http.MethodPut, path: "/v1/deliverables/" + d.ID + "/link", token: c1Token, body: echoapi.LinkRequest{Link: "https://example.com"}, wantCode: http.StatusForbidden},
		{name: "bad link", method: http.MethodPut, path: "/v1/deliverables/" + d.ID + "/link", token: anaToken, body: echoapi.LinkRequest{Link: "nope"}, wantCode: http.StatusBadRequest},
		{name: "unknown deliverable", path: "/v1/deliverables/missing", token: anaToken, wantCode: http.StatusNotFound},
	})
}

func TestGradeRequest_RawValue(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `7.005`, want: "7.005"},
		{body: `"8.5"`, want: "8.5"},
		{body: `null`, want: ""},
		{body: ``, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, echoapi.GradeRequest{Value: []byte(tt.body)}.RawValue(), tt.body)
	}
}
