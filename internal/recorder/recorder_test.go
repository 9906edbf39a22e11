package recorder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sentinl-app/sentinl/client/internal/recorder"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	startErr  error
	stopErr   error
	artifact  []byte
	started   int
	stopped   int
	cancelled int
}

func (f *fakeSource) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeSource) Stop() ([]byte, error) {
	f.stopped++
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return f.artifact, nil
}

func (f *fakeSource) Cancel() {
	f.cancelled++
}

func TestControllerHappyPath(t *testing.T) {
	src := &fakeSource{artifact: []byte("pcm")}
	ctrl := recorder.NewController(src)

	require.NoError(t, ctrl.Start(context.Background()))
	require.Equal(t, recorder.StateRecording, ctrl.State())

	ctrl.Tick()
	ctrl.Tick()
	require.Equal(t, 2, ctrl.Elapsed())

	artifact, err := ctrl.Stop()
	require.NoError(t, err)
	require.Equal(t, []byte("pcm"), artifact)
	require.Equal(t, recorder.StateProcessing, ctrl.State())

	ctrl.Finish()
	require.Equal(t, recorder.StateIdle, ctrl.State())
	require.Equal(t, 0, ctrl.Elapsed())
}

func TestControllerPermissionDenied(t *testing.T) {
	denied := errors.New("microphone permission denied")
	src := &fakeSource{startErr: denied}
	ctrl := recorder.NewController(src)

	err := ctrl.Start(context.Background())
	require.ErrorIs(t, err, denied)
	require.Equal(t, recorder.StateIdle, ctrl.State())
	require.Zero(t, src.started)
}

func TestControllerStopWhileIdleIsNoop(t *testing.T) {
	src := &fakeSource{}
	ctrl := recorder.NewController(src)

	artifact, err := ctrl.Stop()
	require.NoError(t, err)
	require.Nil(t, artifact)
	require.Zero(t, src.stopped)
	require.Equal(t, recorder.StateIdle, ctrl.State())
}

func TestControllerTickOnlyWhileRecording(t *testing.T) {
	src := &fakeSource{artifact: []byte("x")}
	ctrl := recorder.NewController(src)

	ctrl.Tick()
	require.Equal(t, 0, ctrl.Elapsed())

	require.NoError(t, ctrl.Start(context.Background()))
	ctrl.Tick()
	_, err := ctrl.Stop()
	require.NoError(t, err)

	// Processing: ticks are ignored and the counter is already moot.
	ctrl.Tick()
	ctrl.Finish()
	require.Equal(t, 0, ctrl.Elapsed())
}

func TestControllerCancelAlwaysSafe(t *testing.T) {
	src := &fakeSource{}
	ctrl := recorder.NewController(src)

	ctrl.Cancel()
	require.Equal(t, recorder.StateIdle, ctrl.State())
	require.Zero(t, src.cancelled)

	require.NoError(t, ctrl.Start(context.Background()))
	ctrl.Tick()
	ctrl.Cancel()
	require.Equal(t, recorder.StateIdle, ctrl.State())
	require.Equal(t, 0, ctrl.Elapsed())
	require.Equal(t, 1, src.cancelled)
}

func TestControllerStopFailureReleasesAndIdles(t *testing.T) {
	src := &fakeSource{stopErr: errors.New("device vanished")}
	ctrl := recorder.NewController(src)

	require.NoError(t, ctrl.Start(context.Background()))
	_, err := ctrl.Stop()
	require.Error(t, err)
	require.Equal(t, recorder.StateIdle, ctrl.State())
	require.Equal(t, 0, ctrl.Elapsed())
}

func TestControllerDoubleStart(t *testing.T) {
	src := &fakeSource{}
	ctrl := recorder.NewController(src)

	require.NoError(t, ctrl.Start(context.Background()))
	require.ErrorIs(t, ctrl.Start(context.Background()), recorder.ErrAlreadyRecording)
}
