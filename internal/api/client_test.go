package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinl-app/sentinl/client/internal/api"
	"github.com/sentinl-app/sentinl/client/internal/config"
	"github.com/sentinl-app/sentinl/client/internal/session"
	"github.com/sentinl-app/sentinl/client/internal/sim"
)

// newTestClient stands up the coach simulator and a client pointed at it.
func newTestClient(t *testing.T) (*api.Client, *session.Store) {
	t.Helper()

	state := sim.NewState()
	tones := sim.NewMemoryToneStore(sim.SeedTones())
	tone, _ := tones.FindByID("supportive")
	srv := httptest.NewServer(sim.NewRouter(state, tones, sim.NewScriptedCoach(tone)))
	t.Cleanup(srv.Close)

	sess, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := config.ClientConfig{BaseURL: srv.URL + "/api/", TimeoutSeconds: 5}
	return api.New(cfg, sess), sess
}

func signIn(t *testing.T, client *api.Client, sess *session.Store) {
	t.Helper()
	res, err := client.Register(context.Background(), api.Credentials{Username: "ada", Password: "hunter2"})
	require.NoError(t, err)
	require.NoError(t, sess.SetCredentials(res.Token, res.User))
}

func TestRegisterAndProfile(t *testing.T) {
	client, sess := newTestClient(t)
	signIn(t, client, sess)

	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50, profile.DisciplineScore)
	require.Equal(t, 6, profile.Level())
}

func TestProfileWithoutTokenIsTypedError(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Profile(context.Background())
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Contains(t, apiErr.Message, "authentication required")
}

func TestSendText(t *testing.T) {
	client, sess := newTestClient(t)
	signIn(t, client, sess)

	reply, err := client.SendText(context.Background(), "I'm tired today")
	require.NoError(t, err)
	require.NotEmpty(t, reply)
}

func TestSendTextNetworkFailure(t *testing.T) {
	sess, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	// Nothing is listening here.
	cfg := config.ClientConfig{BaseURL: "http://127.0.0.1:1/api/", TimeoutSeconds: 1}
	client := api.New(cfg, sess)

	_, err = client.SendText(context.Background(), "hello")
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Zero(t, apiErr.Status)
}

func TestSendVoice(t *testing.T) {
	client, sess := newTestClient(t)
	signIn(t, client, sess)

	reply, err := client.SendVoice(context.Background(), []byte("fake m4a bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, reply)
}

func TestUpdateTaskFlow(t *testing.T) {
	client, sess := newTestClient(t)
	signIn(t, client, sess)

	ctx := context.Background()
	tasks, err := client.Tasks(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tasks)

	done := true
	updated, err := client.UpdateTask(ctx, tasks[0].ID, api.TaskPatch{IsCompleted: &done})
	require.NoError(t, err)
	require.True(t, updated.IsCompleted)

	// The completed task moved from the open list to history.
	remaining, err := client.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, len(tasks)-1)

	history, err := client.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestTones(t *testing.T) {
	client, _ := newTestClient(t)

	tones, err := client.Tones(context.Background())
	require.NoError(t, err)
	require.Len(t, tones, 3)
	require.Equal(t, "supportive", tones[0].ID)
	require.NotEmpty(t, tones[0].OpeningLine)
}

func TestUnknownResponseFieldIsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"discipline_score": 50, "surprise": true}`))
	}))
	t.Cleanup(srv.Close)

	sess, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	client := api.New(config.ClientConfig{BaseURL: srv.URL + "/api/", TimeoutSeconds: 5}, sess)

	_, err = client.Profile(context.Background())
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Message, "decode response")
}

func TestStreamText(t *testing.T) {
	client, sess := newTestClient(t)
	signIn(t, client, sess)

	chunks, err := client.StreamText(context.Background(), "let's go!")
	require.NoError(t, err)

	var full string
	var done bool
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		if chunk.Done {
			done = true
			continue
		}
		full += chunk.Text
	}
	require.True(t, done, "stream ended without a done frame")
	require.NotEmpty(t, full)
}

func TestStreamTextDialFailure(t *testing.T) {
	sess, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	cfg := config.ClientConfig{BaseURL: "http://127.0.0.1:1/api/", TimeoutSeconds: 1}
	client := api.New(cfg, sess)

	_, err = client.StreamText(context.Background(), "hello")
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
}
