// Package testutil provides in-memory stand-ins for the Postgres
// repositories, used by tests that exercise services end to end.
package testutil

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"go-task-manager/internal/model"
	"go-task-manager/pkg/apierror"
)

type UserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[int64]model.User{}}
}

func (s *UserStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return model.User{}, apierror.New("ALREADY_EXISTS", "username is already registered", "username", http.StatusConflict)
		}
		if existing.Email == u.Email {
			return model.User{}, apierror.New("ALREADY_EXISTS", "email is already registered", "email", http.StatusConflict)
		}
	}

	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = u
	return u, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

// Get returns a stored user by id, for assertions.
func (s *UserStore) Get(id int64) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	return u, ok
}

type TaskStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]model.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[int64]model.Task{}}
}

func (s *TaskStore) List(_ context.Context, ownerID int64, status *model.TaskStatus) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		if t.UserID != ownerID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *TaskStore) Create(_ context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t.ID = s.nextID
	s.tasks[t.ID] = t
	return t, nil
}

func (s *TaskStore) FindByID(_ context.Context, id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, model.ErrTaskNotFound
	}
	return t, nil
}

func (s *TaskStore) Update(_ context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[t.ID]
	if !ok || current.UserID != t.UserID {
		return model.Task{}, model.ErrTaskNotFound
	}
	t.CreatedAt = current.CreatedAt
	s.tasks[t.ID] = t
	return t, nil
}

func (s *TaskStore) Delete(_ context.Context, id int64, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[id]
	if !ok || current.UserID != ownerID {
		return model.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

type AuditLog struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (l *AuditLog) Log(_ context.Context, entry model.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	return nil
}

func (l *AuditLog) Entries() []model.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]model.AuditEntry(nil), l.entries...)
}

// Snapshot returns every stored task regardless of owner.
func (s *TaskStore) Snapshot() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}
