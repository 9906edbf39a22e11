package sim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sentinl-app/sentinl/client/internal/session"
)

type contextKey string

const userIDKey contextKey = "sim.userID"

// Router serves the SentinL REST contract against the in-memory state, so
// the client can be developed and tested without the production backend.
type Router struct {
	state *State
	tones ToneStore
	coach Replier
}

// NewRouter wires the simulator's HTTP surface.
func NewRouter(state *State, tones ToneStore, coach Replier) http.Handler {
	s := &Router{state: state, tones: tones, coach: coach}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Post("/register/", s.handleRegister)
		api.Post("/login/", s.handleLogin)
		api.Get("/tones/", s.handleTones)

		api.Group(func(authed chi.Router) {
			authed.Use(s.requireToken)
			authed.Get("/profile/", s.handleProfile)
			authed.Get("/tasks/", s.handleTasks)
			authed.Patch("/tasks/{id}/", s.handleUpdateTask)
			authed.Get("/history/", s.handleHistory)
			authed.Get("/achievements/", s.handleAchievements)
			authed.Post("/text-chat/", s.handleTextChat)
			authed.Post("/voice-chat/", s.handleVoiceChat)
			authed.Get("/chat/stream/", s.handleChatStream)
		})
	})

	return r
}

// requireToken resolves the "Authorization: Token <tok>" header into a user
// id on the request context.
func (s *Router) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Token ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := s.state.UserForToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUser(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

func (s *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Username == "" || payload.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, user, err := s.state.Register(payload.Username, payload.Password, payload.Email)
	if errors.Is(err, ErrUserExists) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, authPayload{Token: token, User: user})
}

func (s *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := s.state.Login(payload.Username, payload.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	respondJSON(w, http.StatusOK, authPayload{Token: token, User: user})
}

type authPayload struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

func (s *Router) handleTones(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.tones.List())
}

func (s *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.state.Profile(requestUser(r))
	if err != nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Router) handleTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.state.Tasks(requestUser(r)))
}

func (s *Router) handleHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.state.History(requestUser(r)))
}

func (s *Router) handleAchievements(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.state.Achievements(requestUser(r)))
}

func (s *Router) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var patch struct {
		IsCompleted      *bool `json:"is_completed"`
		IsMicroCompleted *bool `json:"is_micro_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.state.UpdateTask(requestUser(r), taskID, patch.IsCompleted, patch.IsMicroCompleted)
	if errors.Is(err, ErrTaskNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (s *Router) handleTextChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.coach.Reply(r.Context(), payload.Message)
	if err != nil {
		log.Printf("[sim] coach reply failed: %v", err)
		respondError(w, http.StatusBadGateway, "coach unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Router) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil || size == 0 {
		respondError(w, http.StatusBadRequest, "audio file is empty")
		return
	}
	log.Printf("[sim] voice note received: %s (%d bytes)", header.Filename, size)

	// The simulator has no transcription pipeline; it coaches off the fact
	// that a voice note arrived at all.
	reply, err := s.coach.Reply(r.Context(), "I sent you a voice note about my day.")
	if err != nil {
		log.Printf("[sim] coach reply failed: %v", err)
		respondError(w, http.StatusBadGateway, "coach unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[sim] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
