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
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"parkeasy/internal/api"
	"parkeasy/internal/cache"
	"parkeasy/internal/config"
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

	slots := cache.New(client, cache.SynthesizeGrid, &logger)
	state := service.NewState(cfg.View.Location, cfg.View.Floor, slots)
	confirm := view.NewTerminalConfirmer(os.Stdin, os.Stdout)
	svc := service.NewBookingService(client, notifier, confirm, state, &logger)

	screen := view.NewCustomer(svc, sessions, os.Stdout, &logger)
	notifier.Subscribe(ctx, func() { screen.OnRemoteUpdate(ctx) })

	if client.Token() == "" {
		if err := authenticate(ctx, client, &logger); err != nil {
			return err
		}
	}

	screen.ShowSlots(ctx)
	repl(ctx, cfg, client, svc, screen)

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
	logger := baseLogger.With().Str("component", "customer-main").Logger()
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

// restoreSession picks up the previous login, unless its token already
// expired, in which case the leftover session is dropped.
func restoreSession(ctx context.Context, client *api.Client, sessions *session.FailoverStore, logger *zerolog.Logger) {
	sess, err := sessions.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("session restore failed")
		return
	}
	if sess == nil {
		return
	}
	if session.TokenExpired(sess.Token, time.Now()) {
		logger.Info().Str("username", sess.Username).Msg("stored session expired")
		_ = sessions.Clear(ctx)
		return
	}
	client.SetToken(sess.Token)
	logger.Info().Str("username", sess.Username).Str("role", sess.Role).Msg("session restored")
}

func authenticate(ctx context.Context, client *api.Client, logger *zerolog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("login or register? ")
		if !scanner.Scan() {
			return fmt.Errorf("input closed")
		}
		mode := strings.TrimSpace(scanner.Text())

		username := prompt(scanner, "username: ")
		password := prompt(scanner, "password: ")

		var err error
		switch mode {
		case "register":
			_, err = client.Register(ctx, username, password, models.RoleCustomer)
		default:
			_, err = client.Login(ctx, username, password)
		}
		if err == nil {
			fmt.Println("Welcome!")
			return nil
		}
		fmt.Println(view.ErrorMessage(err))
		logger.Debug().Err(err).Msg("authentication attempt failed")
	}
}

func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func repl(ctx context.Context, cfg *config.Config, client *api.Client, svc *service.BookingService, screen *view.Customer) {
	scanner := bufio.NewScanner(os.Stdin)
	printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "slots":
			screen.ShowSlots(ctx)
		case "view":
			if len(fields) < 3 {
				fmt.Printf("usage: view <location> <floor>; locations: %s\n", strings.Join(cfg.Locations, ", "))
				continue
			}
			floor, err := strconv.Atoi(fields[2])
			if err != nil || floor < 1 {
				fmt.Println("floor must be a positive number")
				continue
			}
			screen.SwitchView(ctx, fields[1], floor)
		case "book":
			screen.Book(ctx, readBookingForm(scanner, svc))
		case "bookings":
			screen.ShowBookings(ctx)
		case "cancel":
			if len(fields) < 2 {
				fmt.Println("usage: cancel <booking-id>")
				continue
			}
			screen.Cancel(ctx, fields[1])
		case "extend":
			if len(fields) < 3 {
				fmt.Println("usage: extend <booking-id> <hours>")
				continue
			}
			hours, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Println("hours must be a number")
				continue
			}
			screen.Extend(ctx, fields[1], hours)
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

func readBookingForm(scanner *bufio.Scanner, svc *service.BookingService) service.CreateForm {
	form := service.CreateForm{
		Name:    prompt(scanner, "name: "),
		Vehicle: prompt(scanner, "vehicle number: "),
		Slot:    prompt(scanner, "slot (e.g. F1-A1): "),
		Date:    prompt(scanner, "date (YYYY-MM-DD): "),
		Time:    prompt(scanner, "time (HH:MM): "),
	}
	form.Location = svc.State().Location()
	if hours, err := strconv.Atoi(prompt(scanner, "duration hours (1/2/4/8/24): ")); err == nil {
		form.Duration = hours
	}
	return form
}

func printHelp() {
	fmt.Println(`commands:
  slots                    show the slot grid
  view <location> <floor>  switch location and floor
  book                     create a booking
  bookings                 list your bookings
  cancel <id>              cancel a booking
  extend <id> <hours>      extend a booking
  logout | quit`)
}
