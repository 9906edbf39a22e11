// Package recorder manages the voice-note capture lifecycle for the chat
// screen: Idle -> Recording -> Idle on a plain stop, or Recording ->
// Processing -> Idle when the artifact is handed to the coach.
package recorder

import (
	"context"
	"errors"
	"fmt"
)

// State is the controller's current phase.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrAlreadyRecording is returned when Start is called outside Idle.
var ErrAlreadyRecording = errors.New("recording already in progress")

// Source is an audio capture backend. Start may fail, typically because
// the microphone is unavailable or permission was denied; in that case the
// controller performs no side effects. Stop returns the captured artifact
// and releases the underlying handle; Cancel releases it without one.
type Source interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
	Cancel()
}

// Controller owns exactly one capture session at a time. It is driven from
// the UI event loop and does no locking of its own.
type Controller struct {
	source  Source
	state   State
	elapsed int
}

// NewController wraps a capture source.
func NewController(source Source) *Controller {
	return &Controller{source: source}
}

// State reports the current phase.
func (c *Controller) State() State {
	return c.state
}

// Elapsed is the number of whole seconds recorded so far. It resets to
// zero on every transition into Idle.
func (c *Controller) Elapsed() int {
	return c.elapsed
}

// Start begins capturing. A failure to open the source (permission denial
// included) leaves the controller Idle with no visible side effects.
func (c *Controller) Start(ctx context.Context) error {
	if c.state != StateIdle {
		return ErrAlreadyRecording
	}
	if err := c.source.Start(ctx); err != nil {
		return fmt.Errorf("open capture source: %w", err)
	}
	c.state = StateRecording
	return nil
}

// Tick advances the elapsed counter by one second. Ticks arriving in any
// other state are ignored, so a stray timer event can't inflate the count.
func (c *Controller) Tick() {
	if c.state == StateRecording {
		c.elapsed++
	}
}

// Stop ends the capture and returns the artifact for handoff, moving the
// controller to Processing. The capture handle is released before Stop
// returns, whether or not retrieval succeeded. Stopping while Idle is a
// no-op.
func (c *Controller) Stop() ([]byte, error) {
	if c.state != StateRecording {
		return nil, nil
	}

	artifact, err := c.source.Stop()
	if err != nil {
		c.toIdle()
		return nil, fmt.Errorf("finish capture: %w", err)
	}

	c.state = StateProcessing
	return artifact, nil
}

// Finish marks the post-stop handoff as complete and returns to Idle.
// Safe to call in any state.
func (c *Controller) Finish() {
	c.toIdle()
}

// Cancel discards any in-progress recording and returns to Idle. It never
// errors, even when nothing is being recorded.
func (c *Controller) Cancel() {
	if c.state == StateRecording {
		c.source.Cancel()
	}
	c.toIdle()
}

func (c *Controller) toIdle() {
	c.state = StateIdle
	c.elapsed = 0
}
