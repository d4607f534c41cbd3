package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/woomarket/console/internal/hub"
	"github.com/woomarket/console/internal/logger"
	"github.com/woomarket/console/internal/metrics"
	"github.com/woomarket/console/internal/server"
	"github.com/woomarket/console/internal/store"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addrFlag := flag.String("addr", "127.0.0.1:8712", "HTTP listen address (or set CONSOLE_ADDR env var)")
	rtdbURLFlag := flag.String("rtdb-url", "", "Realtime database base URL (or set RTDB_URL env var)")
	rtdbAuthFlag := flag.String("rtdb-auth-token", "", "Realtime database auth token (or set RTDB_AUTH_TOKEN env var)")
	devFlag := flag.Bool("dev", false, "Run against an in-memory store seeded with demo data")
	verboseFlag := flag.Bool("verbose", false, "Enable verbose (debug) logging")
	flag.Parse()

	// A local .env is optional.
	_ = godotenv.Load()

	if envAddr := os.Getenv("CONSOLE_ADDR"); envAddr != "" {
		*addrFlag = envAddr
	}
	if envURL := os.Getenv("RTDB_URL"); envURL != "" {
		*rtdbURLFlag = envURL
	}
	if envAuth := os.Getenv("RTDB_AUTH_TOKEN"); envAuth != "" {
		*rtdbAuthFlag = envAuth
	}

	log := logger.New(*verboseFlag)
	log.Info("starting operator console", "version", version)
	metrics.BuildInfo.WithLabelValues(version).Set(1)

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: os.Getenv("SENTRY_ENVIRONMENT"),
			Release:     version,
		}); err != nil {
			log.Warn("failed to initialize sentry, continuing without it", "error", err)
		} else {
			defer sentry.Flush(5 * time.Second)
		}
	}

	clock := clockwork.NewRealClock()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if *devFlag {
		mem := store.NewMemory()
		if err := store.SeedDemoData(ctx, mem, clock); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		log.Info("using in-memory store with demo data")
		st = mem
	} else {
		if *rtdbURLFlag == "" {
			return fmt.Errorf("--rtdb-url is required (or set RTDB_URL, or pass --dev)")
		}
		rtdb, err := store.NewRTDB(store.RTDBConfig{
			BaseURL:   *rtdbURLFlag,
			AuthToken: *rtdbAuthFlag,
			Logger:    log,
		})
		if err != nil {
			return err
		}
		st = rtdb
	}

	liveHub, err := hub.New(hub.Config{Store: st, Logger: log, Clock: clock})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:   *addrFlag,
		Hub:    liveHub,
		Store:  st,
		Logger: log,
		Clock:  clock,
	})
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := liveHub.Run(groupCtx); err != nil && groupCtx.Err() == nil {
			return fmt.Errorf("hub failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("console ready", "url", fmt.Sprintf("http://%s", *addrFlag))
		if err := srv.Start(); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("console stopped")
	return nil
}
