package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/mind-engage/proctored-quiz/internal/api/http"
	auth "github.com/mind-engage/proctored-quiz/internal/auth/middleware"
	"github.com/mind-engage/proctored-quiz/internal/config"
	"github.com/mind-engage/proctored-quiz/internal/db"
	"github.com/mind-engage/proctored-quiz/internal/integrity"
	"github.com/mind-engage/proctored-quiz/internal/logger"
	"github.com/mind-engage/proctored-quiz/internal/metrics"
	"github.com/mind-engage/proctored-quiz/internal/quiz"
	"github.com/mind-engage/proctored-quiz/internal/session"
	syncx "github.com/mind-engage/proctored-quiz/internal/sync"
)

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml, or a yaml file")
	hashCode := flag.String("hash-entry-code", "", "print the bcrypt hash of an entry code and exit")
	flag.Parse()

	if *hashCode != "" {
		h, err := auth.HashEntryCode(*hashCode)
		if err != nil {
			log.Fatalf("hash entry code: %v", err)
		}
		fmt.Println(h)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("quizd stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	corpus, err := quiz.LoadCorpus(cfg.Corpus.Path)
	if err != nil {
		return err
	}

	// --- Persistence ---
	var (
		store  quiz.Store
		events syncx.Appender
		dbh    *sql.DB
	)
	if cfg.DB.Driver == "memory" {
		store, events = quiz.NewMemoryStore(), &syncx.MemoryLog{}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		dbh, err = db.Open(ctx, db.Driver(cfg.DB.Driver), cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer dbh.Close()
		store, events = quiz.NewSQLStore(dbh, cfg.DB.Driver), syncx.NewEventRepo(dbh)
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// --- Session ---
	platform := integrity.NewRemotePlatform()
	sess := session.New(corpus, platform,
		session.WithLogger(zl),
		session.WithMetrics(m),
		session.WithPipeline(session.NewPipeline(store, events, zl.Named("submit"), m)),
		session.WithMonitorOptions(
			integrity.WithMaxViolations(cfg.Integrity.MaxViolations),
			integrity.WithCoalesceWindow(cfg.Integrity.CoalesceWindow),
		),
	)

	gate := auth.NewEntryGate(cfg.Auth.EntryCodeHash)
	r := api.NewRouter(api.Deps{
		Session:     sess,
		Platform:    platform,
		Auth:        auth.NewAuthService(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Gate:        gate,
		Log:         zl.Named("http"),
		CORSOrigins: cfg.CORS.Origins,
		Metrics:     metricsHandler,
		Ready: func(ctx context.Context) error {
			if dbh == nil {
				return nil
			}
			return dbh.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		zl.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DB.Driver),
			zap.Int("questions", len(corpus)),
			zap.Bool("entry_code", gate.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}
	zl.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
