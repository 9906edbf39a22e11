package sim

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/sentinl-app/sentinl/client/internal/analysis/mood"
	"github.com/sentinl-app/sentinl/client/internal/config"
)

// Replier produces a coach reply for one user message.
type Replier interface {
	Reply(ctx context.Context, userMessage string) (string, error)
}

// Streamer is implemented by repliers that can deliver a reply in chunks.
type Streamer interface {
	Stream(ctx context.Context, userMessage string) (*schema.StreamReader[*schema.Message], error)
}

// ScriptedCoach answers from canned lines bucketed by the detected mood.
// It is the default when no model credentials are configured, and it keeps
// the whole REST contract exercisable offline.
type ScriptedCoach struct {
	tone Tone
}

// NewScriptedCoach builds a scripted replier in the given tone.
func NewScriptedCoach(tone Tone) *ScriptedCoach {
	return &ScriptedCoach{tone: tone}
}

// scriptedReplies holds one script per tone, each bucketed by detected
// mood. Unknown tones fall back to the supportive script.
var scriptedReplies = map[string]map[mood.Label][]string{
	"supportive": {
		mood.Tired: {
			"Tired days are exactly what the micro-version exists for. Ten minutes, then rest with the streak intact.",
			"Low energy is information, not a verdict. Shrink the task to its micro-version and bank the win.",
		},
		mood.Struggling: {
			"Make it smaller. What's the two-minute version of the thing you're avoiding?",
			"Consistency beats perfection. Do the micro-version now and we'll rebuild momentum tomorrow.",
		},
		mood.Anxious: {
			"One task at a time. Pick the smallest one on the board and let the rest wait their turn.",
			"Breathe first. Then tell me the single next action, not the whole mountain.",
		},
		mood.Motivated: {
			"Good. Channel it into the hardest task on the board before the feeling fades.",
			"That's the energy. Start the top task now and report back when it's done.",
		},
		mood.Proud: {
			"That's a real win. Log it, enjoy it, and protect the streak tomorrow.",
			"Earned. Your avatar is looking healthier already.",
		},
		mood.Neutral: {
			"That's a great step! Remember, consistency beats perfection. You've got this!",
			"Tell me where today stands and we'll pick the next move together.",
		},
	},
	"drill": {
		mood.Tired: {
			"Tired is not broken. Micro-version, ten minutes, move — then you can rest with the streak intact.",
			"Everyone's tired. Do the micro-version right now and log it.",
		},
		mood.Struggling: {
			"Stop negotiating with yourself. Two-minute version, and start before you finish reading this.",
			"Excuses don't move the score. Smallest task, start time, now.",
		},
		mood.Anxious: {
			"Eyes on one task. The rest of the board doesn't exist until it's done.",
			"Worry burns energy the task needs. Name the next action and execute.",
		},
		mood.Motivated: {
			"Then prove it. Hardest task on the board, clock starts now.",
			"Talk is cheap. Start the top task and report back done.",
		},
		mood.Proud: {
			"Logged. Now defend the streak tomorrow — same time, same standard.",
			"Good. Do it again tomorrow before it counts for anything.",
		},
		mood.Neutral: {
			"Status report: what's on the board and what's already done?",
			"Pick a task and give me a start time.",
		},
	},
	"stoic": {
		mood.Tired: {
			"Fatigue is a condition, not a command. The micro-version is within your power today; do that much and rest.",
			"Honor the body's limit and the habit both: the micro-version keeps your word to yourself.",
		},
		mood.Struggling: {
			"The obstacle shrinks when the task does. What is the two-minute duty in front of you?",
			"Do not demand perfection of today, only action. The micro-version is action.",
		},
		mood.Anxious: {
			"Most of what worries you is not in your control. The next small task is. Attend to that.",
			"Set the mountain aside; carry the single stone that is yours to carry now.",
		},
		mood.Motivated: {
			"Energy is well spent on the hardest duty first. Begin.",
			"Use the wind while it blows: the top task, now.",
		},
		mood.Proud: {
			"A day well used. Note it calmly and prepare to repeat it.",
			"Credit the work, not the mood; the work is what you can repeat tomorrow.",
		},
		mood.Neutral: {
			"Consider the day's duties. Which one is yours to begin now?",
			"What stands before you today, and what have you already finished?",
		},
	},
}

// Reply picks a canned line from the tone's script for the message's mood.
// The choice is a pure function of the tone and input so tests can pin
// responses.
func (c *ScriptedCoach) Reply(_ context.Context, userMessage string) (string, error) {
	script, ok := scriptedReplies[c.tone.ID]
	if !ok {
		script = scriptedReplies["supportive"]
	}

	decision := mood.Analyze(userMessage)
	bucket := script[decision.Mood]
	if len(bucket) == 0 {
		bucket = script[mood.Neutral]
	}
	return bucket[len(userMessage)%len(bucket)], nil
}

// LLMCoach generates replies with an Ark chat model through an eino chain.
type LLMCoach struct {
	tone  Tone
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMCoach compiles the prompt+model chain for the given tone.
func NewLLMCoach(ctx context.Context, cfg config.AIConfig, tone Tone) (*LLMCoach, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile coach chain: %w", err)
	}

	return &LLMCoach{tone: tone, chain: runnable}, nil
}

// Reply runs the chain once and returns the full response.
func (c *LLMCoach) Reply(ctx context.Context, userMessage string) (string, error) {
	response, err := c.chain.Invoke(ctx, c.chainInput(userMessage))
	if err != nil {
		return "", fmt.Errorf("run coach chain: %w", err)
	}
	log.Printf("[coach] generated reply, length=%d", len(response.Content))
	return response.Content, nil
}

// Stream runs the chain in streaming mode.
func (c *LLMCoach) Stream(ctx context.Context, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	stream, err := c.chain.Stream(ctx, c.chainInput(userMessage))
	if err != nil {
		return nil, fmt.Errorf("stream coach chain: %w", err)
	}
	return stream, nil
}

func (c *LLMCoach) chainInput(userMessage string) map[string]any {
	return map[string]any{
		"system": buildSystemPrompt(c.tone, mood.Analyze(userMessage)),
		"query":  userMessage,
	}
}

// buildSystemPrompt frames the model as a discipline coach in the chosen
// tone and folds in the detected mood so replies land appropriately.
func buildSystemPrompt(tone Tone, decision mood.Decision) string {
	var b strings.Builder
	b.WriteString("You are SentinL, an AI discipline coach inside a habit-tracking app. ")
	b.WriteString("Users have daily tasks, each with a reduced micro-version that preserves their streak. ")
	fmt.Fprintf(&b, "Coaching voice: %s (%s). %s", tone.Name, tone.Style, tone.PromptHint)
	if decision.Mood != mood.Neutral {
		fmt.Fprintf(&b, "\nThe user currently sounds %s (intensity %.1f out of 5); respond to that state first.", decision.Mood, decision.Intensity)
	}
	b.WriteString("\nKeep replies under four sentences and always end with a concrete next step.")
	return b.String()
}
