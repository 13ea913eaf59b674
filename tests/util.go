// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
)

type discardLogger struct{}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Fatal(string, ...interface{}) {}

// NewLogger returns a logger that drops everything.
func NewLogger() core.Logger { return discardLogger{} }

// RecordingLogger keeps every message, keyed by level.
type RecordingLogger struct {
	mu       sync.Mutex
	messages map[string][]string
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{messages: make(map[string][]string)}
}

func (l *RecordingLogger) record(level, msg string) {
	l.mu.Lock()
	l.messages[level] = append(l.messages[level], msg)
	l.mu.Unlock()
}

func (l *RecordingLogger) Debug(msg string, _ ...interface{}) { l.record("debug", msg) }
func (l *RecordingLogger) Info(msg string, _ ...interface{})  { l.record("info", msg) }
func (l *RecordingLogger) Warn(msg string, _ ...interface{})  { l.record("warn", msg) }
func (l *RecordingLogger) Error(msg string, _ ...interface{}) { l.record("error", msg) }
func (l *RecordingLogger) Fatal(msg string, _ ...interface{}) { l.record("fatal", msg) }

// Messages returns what was logged at level.
func (l *RecordingLogger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages[level]...)
}

func NewValidator() *validator.Validate {
	v, _ := core.NewValidator()
	return v
}

// Clock is a settable clock, safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock { return &Clock{now: now.UTC()} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now.UTC()
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func CreateUser(t *testing.T, repo user.Repository, uname string, role user.Role, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		ID:        "u-" + uname,
		Username:  uname,
		Email:     uname + "@example.com",
		Role:      role,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
