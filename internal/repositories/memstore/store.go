// Package memstore is an in-process implementation of the repository ports.
// Transactions run against a private snapshot that replaces the live state on
// commit, so a failed or conflicting unit of work leaves no trace.
package memstore

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/models"
)

// ErrWriteConflict is the cause of injected transient conflicts.
var ErrWriteConflict = errors.New("memstore: write conflict")

type state struct {
	users map[string]*models.User
	posts map[string]*models.Post
}

func newState() *state {
	return &state{users: map[string]*models.User{}, posts: map[string]*models.Post{}}
}

func (s *state) clone() *state {
	c := &state{
		users: make(map[string]*models.User, len(s.users)),
		posts: make(map[string]*models.Post, len(s.posts)),
	}
	for id, u := range s.users {
		c.users[id] = cloneUser(u)
	}
	for id, p := range s.posts {
		c.posts[id] = clonePost(p)
	}
	return c
}

type txKey struct{}

// Store holds users and posts in memory.
type Store struct {
	txMu sync.Mutex // serializes writers

	mu        sync.RWMutex // guards the fields below
	data      *state
	conflicts int
	commits   int

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// New returns an empty store. seed drives Sample.
func New(seed uint64) *Store {
	return &Store{
		data: newState(),
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// InjectConflicts makes the next n transaction commits fail with a transient
// conflict after their unit of work ran.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	s.conflicts = n
	s.mu.Unlock()
}

// Commits returns how many transactions have committed.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// WithinTransaction implements repositories.Transactor. Nested calls join the
// outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	staged := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, staged)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return apperr.Transient(ErrWriteConflict)
	}
	s.data = staged
	s.commits++
	return nil
}

// read runs fn against the transaction snapshot in ctx, or the live state.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// write runs fn against the transaction snapshot in ctx, or applies it to the
// live state directly.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) shuffle(n int, swap func(i, j int)) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	s.rnd.Shuffle(n, swap)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Following = cloneStrings(u.Following)
	c.Followers = cloneStrings(u.Followers)
	c.Saves = cloneStrings(u.Saves)
	c.Posts = cloneStrings(u.Posts)
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = cloneStrings(p.Likes)
	c.Comments = append([]models.Comment{}, p.Comments...)
	if p.Image != nil {
		img := *p.Image
		c.Image = &img
	}
	return &c
}

func cloneStrings(in []string) []string {
	return append([]string{}, in...)
}

func now() time.Time { return time.Now().UTC() }
