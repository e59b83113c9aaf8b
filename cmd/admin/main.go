package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"parkeasy/internal/api"
	"parkeasy/internal/cache"
	"parkeasy/internal/config"
	"parkeasy/internal/export"
	"parkeasy/internal/logging"
	"parkeasy/internal/metrics"
	"parkeasy/internal/models"
	"parkeasy/internal/notify"
	"parkeasy/internal/service"
	"parkeasy/internal/session"
	"parkeasy/internal/view"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	metrics.Register()
	startMetricsServer(cfg, &logger)

	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("error creating export directory")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := initSessionStore(cfg, &logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	client := api.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, &logger)
	client.UseTokenStore(sessions)
	restoreSession(ctx, client, sessions, &logger)

	notifier := notify.New(cfg.Redis, cfg.View, &logger)
	defer notifier.Close()

	// The admin table spans every location, so the view has no location
	// filter and stale slot state is kept on fetch failures.
	slots := cache.New(client, cache.KeepStale, &logger)
	state := service.NewState("", 0, slots)
	confirm := view.NewTerminalConfirmer(os.Stdin, os.Stdout)
	svc := service.NewBookingService(client, notifier, confirm, state, &logger)

	exporter := export.New(cfg.Exports.Path, &logger)
	screen := view.NewAdmin(svc, client, sessions, exporter, os.Stdout, &logger)
	notifier.Subscribe(ctx, func() { screen.OnRemoteUpdate(ctx) })

	if client.Token() == "" {
		if err := authenticate(ctx, client, &logger); err != nil {
			return err
		}
	}

	screen.Dashboard(ctx)
	repl(ctx, screen, client)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "admin-main").Logger()
	return cfg, logger, closer, nil
}

func startMetricsServer(cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func initSessionStore(cfg *config.Config, logger *zerolog.Logger) (*session.FailoverStore, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Session.Path), 0o755); err != nil {
		return nil, nil, err
	}
	sqlite, err := session.NewSQLiteStore(cfg.Session.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	store := session.NewFailoverStore(sqlite, session.NewMemoryStore(), logger)
	return store, func() { _ = sqlite.Close() }, nil
}

func restoreSession(ctx context.Context, client *api.Client, sessions *session.FailoverStore, logger *zerolog.Logger) {
	sess, err := sessions.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("session restore failed")
		return
	}
	if sess == nil {
		return
	}
	if sess.Role != models.RoleAdmin {
		logger.Info().Str("role", sess.Role).Msg("stored session is not an admin session")
		return
	}
	if session.TokenExpired(sess.Token, time.Now()) {
		logger.Info().Str("username", sess.Username).Msg("stored session expired")
		_ = sessions.Clear(ctx)
		return
	}
	client.SetToken(sess.Token)
	logger.Info().Str("username", sess.Username).Msg("admin session restored")
}

func authenticate(ctx context.Context, client *api.Client, logger *zerolog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		username := prompt(scanner, "admin username: ")
		password := prompt(scanner, "password: ")
		if username == "" && password == "" {
			return fmt.Errorf("input closed")
		}

		resp, err := client.Login(ctx, username, password)
		if err != nil {
			fmt.Println(view.ErrorMessage(err))
			logger.Debug().Err(err).Msg("authentication attempt failed")
			continue
		}
		if resp.User.Role != models.RoleAdmin {
			fmt.Println("This account is not an admin account.")
			client.Logout(ctx)
			continue
		}
		fmt.Printf("Welcome, %s!\n", resp.User.Username)
		return nil
	}
}

func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func repl(ctx context.Context, screen *view.Admin, client *api.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("admin> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "dashboard":
			screen.Dashboard(ctx)
		case "bookings":
			status, location, date := parseFilters(fields[1:])
			screen.Bookings(ctx, status, location, date)
		case "slots":
			screen.ShowSlots(ctx)
		case "toggle":
			if len(fields) < 2 {
				fmt.Println("usage: toggle <booking-id>")
				continue
			}
			screen.Toggle(ctx, fields[1])
		case "delete":
			if len(fields) < 2 {
				fmt.Println("usage: delete <booking-id>")
				continue
			}
			screen.Delete(ctx, fields[1])
		case "export":
			format := "csv"
			if len(fields) > 1 {
				format = fields[1]
			}
			screen.Export(ctx, format)
		case "logout":
			client.Logout(ctx)
			fmt.Println("Logged out.")
			return
		case "help":
			printHelp()
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command, try: help")
		}
	}
}

// parseFilters reads key=value filter args, e.g. status=active date=2026-09-01.
func parseFilters(args []string) (status, location, date string) {
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			continue
		}
		switch key {
		case "status":
			status = value
		case "location":
			location = value
		case "date":
			date = value
		}
	}
	return status, location, date
}

func printHelp() {
	fmt.Println(`commands:
  dashboard                      stats overview
  bookings [status=] [location=] [date=]
  slots                          full slot table
  toggle <id>                    flip active/completed
  delete <id>                    delete a booking
  export [csv|xlsx]              write the booking report
  logout | quit`)
}
