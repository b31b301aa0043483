// Copyright (c) 2026 SafHub. All rights reserved.

// Command probe drives the session resolver against a running identity
// backend from the terminal.
//
// # Usage
//
//	probe -action signin -email jane.teacher@example.com -password secret
//	probe -action signout
//	probe -action status -path /admin-dashboard
//
// Navigations and notifications are printed instead of rendered. With
// SAFHUB_STORAGE_REDIS_URL set the session survives between invocations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/platform/config"
	"github.com/safhub/safhub/internal/platform/constants"
	redisstore "github.com/safhub/safhub/internal/platform/redis"
	"github.com/safhub/safhub/internal/session"
)

// settleTimeout bounds the wait for role resolution after an auth change.
const settleTimeout = 15 * time.Second

// invocation holds the parsed command line.
type invocation struct {
	action   string
	email    string
	password string
	path     string
	profile  session.Profile
}

func main() {
	var args invocation

	flag.StringVar(&args.action, "action", "status", "signup, signin, signout, refresh or status")
	flag.StringVar(&args.email, "email", "", "account email")
	flag.StringVar(&args.password, "password", "", "account password")
	flag.StringVar(&args.path, "path", "/", "route the simulated UI starts on")
	flag.StringVar(&args.profile.FirstName, "first-name", "", "sign-up first name")
	flag.StringVar(&args.profile.LastName, "last-name", "", "sign-up last name")
	flag.StringVar(&args.profile.School, "school", "", "sign-up school")
	flag.StringVar(&args.profile.Grade, "grade", "", "sign-up grade")
	flag.StringVar(&args.profile.Role, "role", "", "sign-up role hint (student, teacher, admin)")
	flag.Parse()

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the resolver, performs the action and prints the final state.
// Every deferred cleanup has finished by the time it returns.
func run(args invocation) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName), slog.String("component", "probe"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	storage, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	backend := client.NewFromConfig(cfg, storage, log)
	resolver := session.New(session.Config{
		Auth:      backend,
		Roles:     backend.Roles(),
		Storage:   storage,
		Namespace: cfg.StorageNamespace,
		Navigator: &terminal{path: args.path},
		Notifier:  terminalNotifier{},
		Logger:    log,
	})
	defer resolver.Close()

	resolver.Start(ctx)

	if err := perform(ctx, resolver, args); err != nil {
		return err
	}

	printState(resolver.State())
	return nil
}

// perform runs the requested action and waits for the resolver to settle.
func perform(ctx context.Context, resolver *session.Resolver, args invocation) error {
	switch args.action {
	case "status":
	case "signup":
		wait, stop := awaitSettled(resolver)
		defer stop()
		response, err := resolver.SignUp(ctx, args.email, args.password, args.profile)
		if err != nil {
			return err
		}
		// No session means email confirmation is pending.
		if response.Session != nil {
			wait(ctx)
		}
	case "signin":
		wait, stop := awaitSettled(resolver)
		defer stop()
		if err := resolver.SignIn(ctx, args.email, args.password); err != nil {
			return err
		}
		wait(ctx)
	case "signout":
		resolver.SignOut(ctx)
	case "refresh":
		if role := resolver.RefreshUserRole(ctx); role == "" {
			fmt.Println("not signed in")
		}
	default:
		return fmt.Errorf("unknown action %q", args.action)
	}
	return nil
}

// awaitSettled subscribes before an auth change. wait blocks until the
// resolver reaches AUTHENTICATED or settleTimeout passes; stop unsubscribes.
func awaitSettled(resolver *session.Resolver) (wait func(context.Context), stop func()) {
	done := make(chan struct{})
	var once sync.Once

	stop = resolver.Subscribe(func(state session.State) {
		if state.Phase == session.PhaseAuthenticated {
			once.Do(func() { close(done) })
		}
	})

	wait = func(ctx context.Context) {
		timer := time.NewTimer(settleTimeout)
		defer timer.Stop()

		select {
		case <-done:
		case <-timer.C:
			fmt.Fprintln(os.Stderr, "Warning: role resolution did not finish in time")
		case <-ctx.Done():
		}
	}
	return wait, stop
}

// openStorage picks the Redis-backed store when configured, else memory.
func openStorage(ctx context.Context, cfg *config.ClientConfig, log *slog.Logger) (client.Storage, func(), error) {
	if cfg.StorageRedisURL == "" {
		return client.NewMemoryStorage(), func() {}, nil
	}

	rdb, err := redisstore.NewClient(ctx, cfg.StorageRedisURL, log,
		redisstore.WithClientName("safhub-probe"),
		redisstore.WithPoolSize(2),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to storage redis: %w", err)
	}

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis_close_error", slog.Any("error", err))
		}
	}
	return client.NewRedisStorage(rdb, constants.AppName+":"), closeFn, nil
}

func printState(state session.State) {
	fmt.Printf("phase: %s\n", state.Phase)
	if state.User == nil {
		return
	}
	fmt.Printf("user:  %s (%s)\n", state.User.Email, state.User.ID)
	fmt.Printf("role:  %s\n", state.Role)
}

// # Terminal UI

// terminal is a Navigator that prints route changes.
type terminal struct {
	mu   sync.Mutex
	path string
}

func (t *terminal) CurrentPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

func (t *terminal) Navigate(navigation session.Navigation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	verb := "push"
	if navigation.Replace {
		verb = "replace"
	}
	fmt.Printf("navigate (%s): %s -> %s\n", verb, t.path, navigation.To)
	t.path = navigation.To
}

type terminalNotifier struct{}

func (terminalNotifier) Success(title, message string) {
	fmt.Printf("[ok] %s: %s\n", title, message)
}

func (terminalNotifier) Error(title, message string) {
	fmt.Fprintf(os.Stderr, "[error] %s: %s\n", title, message)
}
