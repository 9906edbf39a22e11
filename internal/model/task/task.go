package task

import (
	"strconv"
	"strings"
	"time"
)

// Task is an adaptive daily task. Every task carries a reduced-effort
// micro-version that can be completed instead to keep the streak alive.
type Task struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	MicroVersion     string    `json:"micro_version"`
	IsCompleted      bool      `json:"is_completed"`
	IsMicroCompleted bool      `json:"is_micro_completed"`
	DifficultyWeight int       `json:"difficulty_weight"`
	CreatedAt        time.Time `json:"created_at"`
}

// Done reports whether the task counts toward today's streak in either form.
func (t Task) Done() bool {
	return t.IsCompleted || t.IsMicroCompleted
}

// RequiredLevel parses the micro-version tag into a minimum profile level.
// "v1.0" maps to 1, "v1.1" to 2, and so on; malformed tags default to 1.
func (t Task) RequiredLevel() int {
	parts := strings.Split(t.MicroVersion, ".")
	if len(parts) < 2 {
		return 1
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 1
	}
	return minor + 1
}

// Profile is the server-maintained discipline identity for a user.
type Profile struct {
	ID              int64  `json:"id"`
	DisciplineScore int    `json:"discipline_score"`
	CurrentStreak   int    `json:"current_streak"`
	AvatarHealth    int    `json:"avatar_health"`
	InSicknessMode  bool   `json:"is_in_sickness_mode"`
	PushToken       string `json:"push_token,omitempty"`
}

// Level derives the profile level from the discipline score.
func (p Profile) Level() int {
	return p.DisciplineScore/10 + 1
}

// Achievement marks a milestone unlocked on a profile.
type Achievement struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}
