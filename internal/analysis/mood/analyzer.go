// Package mood classifies a user utterance into coaching moods. The coach
// reply picker uses the result to choose between pushing harder, offering
// the micro-version, or celebrating progress.
package mood

import "strings"

// Label is a coarse coaching mood detected in the user's message.
type Label string

const (
	Neutral    Label = "neutral"
	Tired      Label = "tired"
	Struggling Label = "struggling"
	Anxious    Label = "anxious"
	Motivated  Label = "motivated"
	Proud      Label = "proud"
)

// Decision carries the detected mood and a 1-5 intensity for prompt shaping.
type Decision struct {
	Mood      Label
	Score     int
	Intensity float32
}

var keywordBuckets = map[Label][]string{
	Tired: {
		"tired", "exhausted", "drained", "sleepy", "worn out", "no energy",
		"burned out", "burnt out", "fatigued", "can't get up", "so done",
	},
	Struggling: {
		"struggling", "can't do", "too hard", "don't want to", "give up",
		"giving up", "skip", "failing", "failed", "stuck", "unmotivated",
		"no motivation", "procrastinat", "behind on", "missed my",
	},
	Anxious: {
		"anxious", "worried", "stressed", "overwhelmed", "nervous", "afraid",
		"scared", "panic", "pressure", "too much at once",
	},
	Motivated: {
		"let's go", "ready", "motivated", "pumped", "locked in", "focused",
		"bring it", "i got this", "i've got this", "let's do this",
	},
	Proud: {
		"finished", "completed", "done with", "crushed it", "nailed it",
		"streak", "proud", "did it", "new record", "best day",
	},
}

var punctuationBoost = map[Label]int{
	Motivated: 3,
	Proud:     2,
}

// labelOrder fixes the winner when buckets tie, so Analyze is a pure
// function of the utterance rather than of map iteration order.
var labelOrder = []Label{Tired, Struggling, Anxious, Motivated, Proud}

// Analyze infers the dominant mood of a user utterance. An empty or
// unmatched utterance yields Neutral with zero score.
func Analyze(utterance string) Decision {
	d := scoreText(utterance)
	if d.Score == 0 {
		return Decision{Mood: Neutral, Intensity: 3}
	}

	intensity := 2 + float32(d.Score)/4
	if d.Mood == Motivated || d.Mood == Proud {
		intensity += 1
	}
	if intensity < 1 {
		intensity = 1
	}
	if intensity > 5 {
		intensity = 5
	}

	return Decision{Mood: d.Mood, Score: d.Score, Intensity: intensity}
}

func scoreText(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Mood: Neutral}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 0 {
		scores[Motivated] += exclamations * punctuationBoost[Motivated]
		if exclamations == 1 {
			scores[Proud] += punctuationBoost[Proud]
		}
	}

	bestLabel := Neutral
	bestScore := 0
	for _, label := range labelOrder {
		if s := scores[label]; s > bestScore {
			bestScore = s
			bestLabel = label
		}
	}

	return Decision{Mood: bestLabel, Score: bestScore}
}
