package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sentinl-app/sentinl/client/internal/api"
	"github.com/sentinl-app/sentinl/client/internal/config"
	"github.com/sentinl-app/sentinl/client/internal/model/avatar"
	"github.com/sentinl-app/sentinl/client/internal/recorder"
	"github.com/sentinl-app/sentinl/client/internal/session"
	"github.com/sentinl-app/sentinl/client/internal/tui"
)

var (
	passwordFlag string
	emailFlag    string
	microFlag    bool

	rootCmd = &cobra.Command{
		Use:   "sentinl",
		Short: "Terminal client for the SentinL discipline coach",
		Long: `sentinl talks to a SentinL backend: manage your daily tasks,
watch your avatar's condition, and chat with your AI coach by text
or voice.`,
		SilenceUsage: true,
	}

	registerCmd = &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		Run:   runRegister,
	}

	loginCmd = &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in to an existing account",
		Args:  cobra.ExactArgs(1),
		Run:   runLogin,
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored credentials",
		Run:   runLogout,
	}

	profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Show your discipline profile and avatar condition",
		Run:   runProfile,
	}

	tasksCmd = &cobra.Command{
		Use:   "tasks",
		Short: "List today's open tasks",
		Run:   runTasks,
	}

	completeCmd = &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task done (use --micro for the reduced version)",
		Args:  cobra.ExactArgs(1),
		Run:   runComplete,
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List completed tasks",
		Run:   runHistory,
	}

	achievementsCmd = &cobra.Command{
		Use:   "achievements",
		Short: "List unlocked achievements",
		Run:   runAchievements,
	}

	askCmd = &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send the coach a single message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive coach chat",
		Run:   runChat,
	}
)

func init() {
	registerCmd.Flags().StringVar(&passwordFlag, "password", "", "password (prompted when omitted)")
	registerCmd.Flags().StringVar(&emailFlag, "email", "", "email address")
	loginCmd.Flags().StringVar(&passwordFlag, "password", "", "password (prompted when omitted)")
	completeCmd.Flags().BoolVar(&microFlag, "micro", false, "complete the micro-version instead")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(achievementsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

// setup resolves config, restores the session, and builds the API client.
func setup() (*config.Config, *session.Store, *api.Client) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sess, err := session.NewStore(cfg.Client.StateDir)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}

	return cfg, sess, api.New(cfg.Client, sess)
}

func requireAuth(sess *session.Store) {
	if !sess.Authenticated() {
		log.Fatal("not signed in; run `sentinl login <username>` first")
	}
}

func promptPassword() string {
	if passwordFlag != "" {
		return passwordFlag
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		log.Fatalf("failed to read password: %v", err)
	}
	return strings.TrimSpace(line)
}

func runRegister(cmd *cobra.Command, args []string) {
	_, sess, client := setup()

	res, err := client.Register(cmd.Context(), api.Credentials{
		Username: args[0],
		Password: promptPassword(),
		Email:    emailFlag,
	})
	if err != nil {
		log.Fatalf("registration failed: %v", err)
	}
	if err := sess.SetCredentials(res.Token, res.User); err != nil {
		log.Fatalf("failed to store credentials: %v", err)
	}

	fmt.Printf("Welcome, %s. Your coach is ready: try `sentinl chat`.\n", res.User.Username)
}

func runLogin(cmd *cobra.Command, args []string) {
	_, sess, client := setup()

	res, err := client.Login(cmd.Context(), api.Credentials{
		Username: args[0],
		Password: promptPassword(),
	})
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	if err := sess.SetCredentials(res.Token, res.User); err != nil {
		log.Fatalf("failed to store credentials: %v", err)
	}

	fmt.Printf("Signed in as %s.\n", res.User.Username)
}

func runLogout(cmd *cobra.Command, args []string) {
	_, sess, _ := setup()
	if err := sess.Clear(); err != nil {
		log.Fatalf("failed to clear session: %v", err)
	}
	fmt.Println("Signed out.")
}

func runProfile(cmd *cobra.Command, args []string) {
	_, sess, client := setup()
	requireAuth(sess)

	profile, err := client.Profile(cmd.Context())
	if err != nil {
		log.Fatalf("failed to fetch profile: %v", err)
	}

	expr := avatar.ForScore(profile.DisciplineScore)
	fmt.Printf("%s — level %d\n", sess.User().Username, profile.Level())
	fmt.Printf("  discipline score  %d\n", profile.DisciplineScore)
	fmt.Printf("  current streak    %d\n", profile.CurrentStreak)
	fmt.Printf("  avatar health     %d\n", profile.AvatarHealth)
	fmt.Printf("  avatar status     %s (pulse %.1f)\n", expr.Status, expr.PulseRate)
	if profile.InSicknessMode {
		fmt.Println("  sickness mode     on (streak penalties paused)")
	}
}

func runTasks(cmd *cobra.Command, args []string) {
	_, sess, client := setup()
	requireAuth(sess)

	tasks, err := client.Tasks(cmd.Context())
	if err != nil {
		log.Fatalf("failed to fetch tasks: %v", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No open tasks. Nicely done.")
		return
	}

	for _, t := range tasks {
		fmt.Printf("%4d  %s  (weight %d, micro: %s)\n", t.ID, t.Title, t.DifficultyWeight, t.MicroVersion)
	}
}

func runComplete(cmd *cobra.Command, args []string) {
	_, sess, client := setup()
	requireAuth(sess)

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		log.Fatalf("invalid task id %q", args[0])
	}

	done := true
	patch := api.TaskPatch{IsCompleted: &done}
	if microFlag {
		patch = api.TaskPatch{IsMicroCompleted: &done}
	}

	updated, err := client.UpdateTask(cmd.Context(), id, patch)
	if err != nil {
		log.Fatalf("failed to update task: %v", err)
	}

	profile, err := client.Profile(cmd.Context())
	if err != nil {
		log.Fatalf("failed to fetch profile: %v", err)
	}

	kind := "Completed"
	if microFlag {
		kind = "Micro-completed"
	}
	fmt.Printf("%s %q. Score is now %d (level %d).\n", kind, updated.Title, profile.DisciplineScore, profile.Level())
}

func runHistory(cmd *cobra.Command, args []string) {
	_, sess, client := setup()
	requireAuth(sess)

	tasks, err := client.History(cmd.Context())
	if err != nil {
		log.Fatalf("failed to fetch history: %v", err)
	}
	if len(tasks) == 0 {
		fmt.Println("Nothing completed yet.")
		return
	}

	for _, t := range tasks {
		mark := "done"
		if !t.IsCompleted && t.IsMicroCompleted {
			mark = "micro"
		}
		fmt.Printf("%4d  %-5s %s\n", t.ID, mark, t.Title)
	}
}

func runAchievements(cmd *cobra.Command, args []string) {
	_, sess, client := setup()
	requireAuth(sess)

	achievements, err := client.Achievements(cmd.Context())
	if err != nil {
		log.Fatalf("failed to fetch achievements: %v", err)
	}
	if len(achievements) == 0 {
		fmt.Println("No achievements yet. Keep at it.")
		return
	}

	for _, a := range achievements {
		fmt.Printf("  %s — %s\n", a.Name, a.Description)
	}
}

func runAsk(cmd *cobra.Command, args []string) {
	_, sess, client := setup()
	requireAuth(sess)

	reply, err := client.SendText(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		log.Fatalf("coach unavailable: %v", err)
	}
	fmt.Println(reply)
}

func runChat(cmd *cobra.Command, args []string) {
	cfg, sess, client := setup()
	requireAuth(sess)

	var stream tui.StreamFunc
	if cfg.Client.StreamReplies {
		stream = func(ctx context.Context, message string) (<-chan api.StreamChunk, error) {
			return client.StreamText(ctx, message)
		}
	}

	// Seed the greeting from the backend's active tone when reachable.
	var opening string
	if tones, err := client.Tones(cmd.Context()); err == nil && len(tones) > 0 {
		opening = tones[0].OpeningLine
	}

	rec := recorder.NewController(recorder.NewExecSource(cfg.Client.RecorderCmd, cfg.Client.RecorderArgs))
	model := tui.NewChat(client, stream, rec, opening)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("chat session failed: %v", err)
	}
}
