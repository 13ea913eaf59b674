// Package jury decides who may grade a deliverable and draws the jury.
package jury

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/juror/core/project"
	"github.com/trezcool/juror/core/user"
)

// MinSize is the smallest jury ever requested.
const MinSize = 3

// Eligible returns the students allowed to grade deliverables of p: every student outside its team.
// The input order is kept.
func Eligible(p project.Project, users []user.User) []user.User {
	pool := make([]user.User, 0, len(users))
	for _, usr := range users {
		if usr.IsStudent() && !p.HasMember(usr.Username) {
			pool = append(pool, usr)
		}
	}
	return pool
}

// Shuffler is the entropy source of the draw.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Assignable is what the selector needs to know about a deliverable.
type Assignable interface {
	IsDue(now time.Time) bool
	JuryAssigned() bool
	RequestedJurySize() int
}

type Selector struct {
	rnd Shuffler
}

func NewSelector(rnd Shuffler) *Selector {
	return &Selector{rnd: rnd}
}

// Select draws max(MinSize, requested) distinct user IDs uniformly from pool,
// or the whole pool (shuffled) when it is smaller.
func (s *Selector) Select(pool []user.User, requested int) []string {
	want := requested
	if want < MinSize {
		want = MinSize
	}

	ids := make([]string, len(pool))
	for i, usr := range pool {
		ids[i] = usr.ID
	}
	s.rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	if want > len(ids) {
		want = len(ids)
	}
	return ids[:want]
}

// AssignIfDue draws a jury for d when it is due and has none yet.
// It reports false when nothing should be stored.
func (s *Selector) AssignIfDue(d Assignable, pool []user.User, now time.Time) ([]string, bool) {
	if d.JuryAssigned() || !d.IsDue(now) {
		return nil, false
	}
	ids := s.Select(pool, d.RequestedJurySize())
	return ids, len(ids) > 0
}

// LockedRand is a math/rand source safe for concurrent use.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

// NewSeed returns a seed read from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, errors.Wrap(err, "reading seed")
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
