// coachsim runs a local SentinL backend stand-in: the full REST and
// websocket contract the client speaks, backed by in-memory state. With
// Ark credentials configured it generates real coach replies; without
// them it falls back to scripted coaching so everything works offline.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sentinl-app/sentinl/client/internal/config"
	"github.com/sentinl-app/sentinl/client/internal/sim"
)

func main() {
	toneID := flag.String("tone", "supportive", "coaching tone: supportive, drill, or stoic")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	tones := sim.NewMemoryToneStore(sim.SeedTones())
	tone, ok := tones.FindByID(*toneID)
	if !ok {
		log.Fatalf("unknown tone %q", *toneID)
	}

	var coach sim.Replier
	if cfg.AI.Enabled() {
		llm, err := sim.NewLLMCoach(ctx, cfg.AI, tone)
		if err != nil {
			log.Printf("warning: failed to initialize model-backed coach: %v", err)
			log.Println("falling back to scripted replies")
			coach = sim.NewScriptedCoach(tone)
		} else {
			log.Printf("model-backed coach ready, tone=%s", tone.ID)
			coach = llm
		}
	} else {
		log.Printf("Ark credentials not configured, using scripted replies, tone=%s", tone.ID)
		coach = sim.NewScriptedCoach(tone)
	}

	state := sim.NewState()
	go runMidnightEnforcer(ctx, state)

	startServer(ctx, cfg.Server, sim.NewRouter(state, tones, coach))
}

// runMidnightEnforcer applies the end-of-day penalty sweep at each local
// midnight until the context is cancelled.
func runMidnightEnforcer(ctx context.Context, state *sim.State) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			penalized := state.EnforceMidnight()
			log.Printf("[enforcer] midnight sweep complete, %d profiles penalized", len(penalized))
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("coach simulator listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
