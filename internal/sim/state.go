package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinl-app/sentinl/client/internal/model/task"
	"github.com/sentinl-app/sentinl/client/internal/session"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrUserExists     = errors.New("username already taken")
	ErrUnknownToken   = errors.New("unknown token")
	ErrTaskNotFound   = errors.New("task not found")
)

type account struct {
	user     session.User
	password string
}

// State is the simulator's in-memory stand-in for the production database:
// accounts, discipline profiles, tasks, and achievements, all keyed per
// user and guarded by one lock.
type State struct {
	mu           sync.RWMutex
	nextUserID   int64
	nextTaskID   int64
	accounts     map[string]*account // by username
	tokens       map[string]int64    // token -> user id
	profiles     map[int64]*task.Profile
	tasks        map[int64][]*task.Task // by user id, insertion order
	achievements map[int64][]task.Achievement
}

// NewState returns an empty simulator state.
func NewState() *State {
	return &State{
		nextUserID:   1,
		nextTaskID:   1,
		accounts:     make(map[string]*account),
		tokens:       make(map[string]int64),
		profiles:     make(map[int64]*task.Profile),
		tasks:        make(map[int64][]*task.Task),
		achievements: make(map[int64][]task.Achievement),
	}
}

// Register creates an account with a fresh profile and a starter task set,
// and returns a live token.
func (s *State) Register(username, password, email string) (string, session.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[username]; ok {
		return "", session.User{}, ErrUserExists
	}

	user := session.User{ID: s.nextUserID, Username: username, Email: email}
	s.nextUserID++
	s.accounts[username] = &account{user: user, password: password}
	s.profiles[user.ID] = &task.Profile{ID: user.ID, DisciplineScore: 50, AvatarHealth: 100}
	s.seedTasksLocked(user.ID)

	token := uuid.NewString()
	s.tokens[token] = user.ID
	return token, user, nil
}

// Login verifies credentials and issues a new token.
func (s *State) Login(username, password string) (string, session.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[username]
	if !ok || acct.password != password {
		return "", session.User{}, ErrBadCredentials
	}

	token := uuid.NewString()
	s.tokens[token] = acct.user.ID
	return token, acct.user, nil
}

// UserForToken resolves a bearer token to its user id.
func (s *State) UserForToken(token string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[token]
	if !ok {
		return 0, ErrUnknownToken
	}
	return id, nil
}

// Profile returns a copy of the user's discipline profile.
func (s *State) Profile(userID int64) (task.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return task.Profile{}, ErrUnknownToken
	}
	return *p, nil
}

// Tasks returns the user's open tasks.
func (s *State) Tasks(userID int64) []task.Task {
	return s.filterTasks(userID, func(t *task.Task) bool { return !t.Done() })
}

// History returns the user's finished tasks.
func (s *State) History(userID int64) []task.Task {
	return s.filterTasks(userID, func(t *task.Task) bool { return t.Done() })
}

func (s *State) filterTasks(userID int64, keep func(*task.Task) bool) []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.tasks[userID]))
	for _, t := range s.tasks[userID] {
		if keep(t) {
			out = append(out, *t)
		}
	}
	return out
}

// Achievements returns the user's unlocked achievements.
func (s *State) Achievements(userID int64) []task.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]task.Achievement(nil), s.achievements[userID]...)
}

// UpdateTask applies a completion patch and the discipline bookkeeping that
// goes with it: a full completion earns double the difficulty weight in
// score plus avatar health, a micro completion earns a single point, and a
// task that was already done earns nothing again.
func (s *State) UpdateTask(userID, taskID int64, completed, microCompleted *bool) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *task.Task
	for _, t := range s.tasks[userID] {
		if t.ID == taskID {
			target = t
			break
		}
	}
	if target == nil {
		return task.Task{}, ErrTaskNotFound
	}

	wasDone := target.Done()
	if completed != nil {
		target.IsCompleted = *completed
	}
	if microCompleted != nil {
		target.IsMicroCompleted = *microCompleted
	}

	if !wasDone {
		profile := s.profiles[userID]
		switch {
		case completed != nil && *completed:
			profile.DisciplineScore = clamp(profile.DisciplineScore+target.DifficultyWeight*2, 0, 100)
			profile.AvatarHealth = clamp(profile.AvatarHealth+5, 0, 100)
		case microCompleted != nil && *microCompleted:
			profile.DisciplineScore = clamp(profile.DisciplineScore+1, 0, 100)
		}
	}

	return *target, nil
}

// EnforceMidnight runs the nightly sweep: any profile not in sickness mode
// with an unfinished task loses its streak and 20 avatar health. It
// returns the ids of the penalized users.
func (s *State) EnforceMidnight() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var penalized []int64
	for userID, profile := range s.profiles {
		if profile.InSicknessMode {
			continue
		}
		for _, t := range s.tasks[userID] {
			if !t.Done() {
				profile.CurrentStreak = 0
				profile.AvatarHealth = clamp(profile.AvatarHealth-20, 0, 100)
				penalized = append(penalized, userID)
				break
			}
		}
	}
	return penalized
}

// AddTask inserts a task for the user, mainly for tests and seeding.
func (s *State) AddTask(userID int64, t task.Task) task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTaskLocked(userID, t)
}

func (s *State) addTaskLocked(userID int64, t task.Task) task.Task {
	t.ID = s.nextTaskID
	s.nextTaskID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	stored := t
	s.tasks[userID] = append(s.tasks[userID], &stored)
	return stored
}

func (s *State) seedTasksLocked(userID int64) {
	seeds := []task.Task{
		{Title: "45 minute workout", MicroVersion: "v1.0", DifficultyWeight: 3},
		{Title: "Read 20 pages", MicroVersion: "v1.1", DifficultyWeight: 2},
		{Title: "Plan tomorrow before 9pm", MicroVersion: "v1.0", DifficultyWeight: 1},
	}
	for _, t := range seeds {
		s.addTaskLocked(userID, t)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
