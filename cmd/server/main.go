package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"os/signal"
	"time"

	"sentra/internal/admin"
	"sentra/internal/admission"
	"sentra/internal/allowlist"
	"sentra/internal/elevation"
	elevationhandler "sentra/internal/elevation/handler"
	"sentra/internal/identity"
	"sentra/internal/killswitch"
	"sentra/internal/platform/config"
	"sentra/internal/platform/database"
	"sentra/internal/platform/health"
	"sentra/internal/platform/logger"
	"sentra/internal/platform/metrics"
	"sentra/internal/policy"
	policyhandler "sentra/internal/policy/handler"
	"sentra/internal/prefs"
	"sentra/internal/signals"
	"sentra/internal/telemetry"
	telemetryhandler "sentra/internal/telemetry/handler"
	"sentra/internal/transparency"
	httptransport "sentra/internal/transport/http"
	domain "sentra/pkg/domain"
)

// stores groups one backend's implementations so main can swap Postgres for
// in-memory with a single branch.
type stores struct {
	prefs        prefs.Store
	allowlist    allowlist.Store
	signals      signals.Store
	events       telemetry.Store
	transparency transparency.Store
	retained     transparency.RetainedStore
	sessions     elevation.Store
	purger       policy.Purger
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing sentra", "addr", cfg.Addr)

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := buildStores(pool)
	if pool == nil {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
	}

	m := metrics.New()
	killSwitch := killswitch.NewSwitch(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.KillSwitchFile != "" {
		// File presence halts ingestion; operable without a deploy.
		probe := func() bool {
			_, err := os.Stat(cfg.KillSwitchFile)
			return err == nil
		}
		refresher := killswitch.NewRefresher(killSwitch, probe, cfg.KillSwitchRefresh, log)
		go refresher.Run(ctx)
	}

	verifier := identity.NewJWTVerifier(cfg.JWTSigningKey)
	recorder := transparency.NewRecorder(st.transparency,
		transparency.WithRecorderLogger(log),
		transparency.WithRecorderMetrics(m),
	)
	gate := elevation.NewGate(st.sessions, elevation.WithGateLogger(log))
	issuer := elevation.NewIssuer(st.sessions,
		secondFactor(cfg.SecondFactorCode),
		elevation.WithTTL(cfg.ElevationTTL),
		elevation.WithIssuerLogger(log),
	)

	pipeline := admission.NewPipeline(killSwitch, st.prefs, st.allowlist, st.signals,
		admission.WithMetrics(m),
		admission.WithLogger(log),
	)
	ingest := telemetry.NewService(pipeline, st.events,
		telemetry.WithServiceLogger(log),
		telemetry.WithServiceMetrics(m),
	)
	policyService := policy.NewService(st.prefs, st.allowlist, st.signals, st.events,
		gate, recorder, st.purger,
		policy.WithPurgeDelay(cfg.PurgeDelay),
		policy.WithLogger(log),
		policy.WithMetrics(m),
	)

	purgeSweeper := policy.NewPurgeSweeper(st.prefs, st.purger, cfg.SweepInterval, log, m)
	go purgeSweeper.Run(ctx)
	sessionSweeper := policy.NewSessionSweeper(st.sessions, cfg.SweepInterval, log)
	go sessionSweeper.Run(ctx)

	healthHandler := health.New()
	healthHandler.RegisterCheck("database", func() error {
		if pool == nil {
			return nil
		}
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Health(checkCtx)
	})

	router := httptransport.NewRouter(httptransport.Config{
		Logger:   log,
		Verifier: verifier,
		AdminKey: cfg.AdminKey,
		Health:   healthHandler,
		Admin:    admin.New(killSwitch, m, log),
		Authed: []httptransport.Registrar{
			telemetryhandler.New(ingest, log),
			policyhandler.New(policyService, recorder, log),
			elevationhandler.New(issuer, log),
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildStores(pool *database.Pool) stores {
	if pool == nil {
		eventStore := telemetry.NewInMemory()
		signalStore := signals.NewInMemory()
		allowStore := allowlist.NewInMemory()
		logStore := transparency.NewInMemory()
		prefsStore := prefs.NewInMemory()
		retained := transparency.NewInMemoryRetained()
		return stores{
			prefs:        prefsStore,
			allowlist:    allowStore,
			signals:      signalStore,
			events:       eventStore,
			transparency: logStore,
			retained:     retained,
			sessions:     elevation.NewInMemory(),
			purger:       policy.NewMemoryPurger(eventStore, signalStore, allowStore, logStore, prefsStore, retained),
		}
	}

	db := pool.DB()
	return stores{
		prefs:        prefs.NewPostgres(db),
		allowlist:    allowlist.NewPostgres(db),
		signals:      signals.NewPostgres(db),
		events:       telemetry.NewPostgres(db),
		transparency: transparency.NewPostgres(db),
		retained:     transparency.NewPostgresRetained(db),
		sessions:     elevation.NewPostgres(db),
		purger:       policy.NewPostgresPurger(db),
	}
}

// secondFactor is the dev stand-in for the external verification flow: a
// shared code from configuration. A real deployment injects its own verifier.
func secondFactor(code string) elevation.SecondFactorVerifier {
	return elevation.SecondFactorFunc(func(_ context.Context, _ domain.UserID, candidate string) (bool, error) {
		return subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1, nil
	})
}
