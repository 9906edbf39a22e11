package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// ExecSource captures audio by running an external recorder command
// (arecord, sox, ffmpeg) and collecting its stdout. It is the default
// Source on desktop machines, where talking to ALSA/CoreAudio directly is
// not worth the trouble.
type ExecSource struct {
	command string
	args    []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	buf    *bytes.Buffer
	cancel context.CancelFunc
}

// NewExecSource builds a source around the configured recorder command.
func NewExecSource(command string, args []string) *ExecSource {
	return &ExecSource{command: command, args: args}
}

// Start launches the recorder process. A missing binary or a refusal to
// open the device surfaces here and leaves the source inert.
func (s *ExecSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return errors.New("capture already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, s.command, s.args...)
	buf := &bytes.Buffer{}
	cmd.Stdout = buf

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", s.command, err)
	}

	s.cmd = cmd
	s.buf = buf
	s.cancel = cancel
	return nil
}

// Stop terminates the recorder and returns whatever it wrote. The process
// and buffer are released regardless of the outcome.
func (s *ExecSource) Stop() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return nil, errors.New("no capture running")
	}

	s.cancel()
	// The recorder exits non-zero when killed; that is the expected way
	// to end a take, so only the captured bytes matter here.
	_ = s.cmd.Wait()

	data := s.buf.Bytes()
	s.release()

	if len(data) == 0 {
		return nil, errors.New("recorder produced no audio")
	}
	return data, nil
}

// Cancel kills the recorder and drops the take.
func (s *ExecSource) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return
	}
	s.cancel()
	_ = s.cmd.Wait()
	s.release()
}

func (s *ExecSource) release() {
	s.cmd = nil
	s.buf = nil
	s.cancel = nil
}
