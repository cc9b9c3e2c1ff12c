package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"flicktrainer/internal/analysis"
	"flicktrainer/internal/analytics"
	"flicktrainer/internal/config"
	"flicktrainer/internal/db"
	"flicktrainer/internal/metrics"
	"flicktrainer/internal/patterns"
	"flicktrainer/internal/profile"
	"flicktrainer/internal/session"
)

const (
	batchSize     = 50
	flushInterval = 500 * time.Millisecond
)

func Run() error {
	appCfg := config.Load()

	tuning, err := config.LoadTuning(appCfg.TuningFile)
	if err != nil {
		return fmt.Errorf("loading tuning: %w", err)
	}

	sessCfg := session.DefaultConfig()
	sessCfg.Analysis = tuning.Analysis
	sessCfg.Recommend = tuning.Recommend
	sessCfg.Cooldown = appCfg.RecommendationCooldown
	sessCfg.TTL = appCfg.SessionTTL

	srv := &Server{
		Generator: patterns.NewGenerator(nil, nil),
	}

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			defer database.Close()
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.PerfBuffer = make(chan db.PerformanceRecord, 1000)
			sessCfg.Persister = database
			sessCfg.History = database
			sessCfg.Recorder = bufferRecorder(srv.PerfBuffer)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	if srv.DB == nil && appCfg.ProfileDir != "" {
		fs, err := profile.NewFileStore(appCfg.ProfileDir)
		if err != nil {
			return fmt.Errorf("opening profile dir: %w", err)
		}
		sessCfg.Persister = fs
		log.Printf("[Profile] Storing profiles in %s\n", appCfg.ProfileDir)
	}

	srv.Sessions = session.NewStore(sessCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + appCfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return srv.Sessions.Run(gctx)
	})
	if srv.DB != nil {
		g.Go(func() error {
			performanceBatchWriter(gctx, srv.DB, srv.PerfBuffer)
			return nil
		})
	}
	return g.Wait()
}

// Routes builds the HTTP handler for every endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/performances", s.handleCompleteSession)
	mux.HandleFunc("GET /sessions/{id}/recommendation", s.handleGetRecommendation)
	mux.HandleFunc("POST /sessions/{id}/recommendation/accept", s.handleAcceptRecommendation)
	mux.HandleFunc("POST /sessions/{id}/recommendation/dismiss", s.handleDismissRecommendation)
	mux.HandleFunc("PUT /sessions/{id}/difficulty", s.handleSetDifficulty)
	mux.HandleFunc("PUT /sessions/{id}/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /sessions/{id}/profile/reset", s.handleResetProfile)
	mux.HandleFunc("GET /sessions/{id}/patterns/{family}", s.handleSessionPattern)
	mux.HandleFunc("GET /sessions/{id}/notifications", s.handleEvents)
	mux.HandleFunc("GET /sessions/{id}/ws", s.handleWS)
	mux.HandleFunc("GET /patterns/{family}", s.handlePattern)
	mux.HandleFunc("GET /players/{id}/summary", s.handlePlayerSummary)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// bufferRecorder queues performances for the batch writer without blocking
// the session.
type bufferRecorder chan db.PerformanceRecord

func (b bufferRecorder) Record(playerID string, perf analysis.GamePerformance) {
	select {
	case b <- db.PerformanceRecord{PlayerID: playerID, Performance: perf, RecordedAt: time.Now()}:
	default:
		log.Printf("[DB] Performance buffer full, dropping record for %s\n", playerID)
	}
}

type performanceStore interface {
	BatchRecordPerformances(ctx context.Context, records []db.PerformanceRecord) error
	AwardBadge(ctx context.Context, playerID string, badgeID analytics.BadgeID) error
}

// performanceBatchWriter drains the buffer into the database in batches of
// up to batchSize, flushing at least every flushInterval and once more when
// ctx ends.
func performanceBatchWriter(ctx context.Context, store performanceStore, buffer <-chan db.PerformanceRecord) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]db.PerformanceRecord, 0, batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := store.BatchRecordPerformances(ctx, batch); err != nil {
			log.Printf("[DB] BatchRecordPerformances error: %v\n", err)
		}
		for _, rec := range batch {
			for _, b := range analytics.EvaluateSessionBadges(rec.Performance) {
				if err := store.AwardBadge(ctx, rec.PlayerID, b.ID); err != nil {
					log.Printf("[DB] AwardBadge error: %v\n", err)
				}
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case rec := <-buffer:
					batch = append(batch, rec)
				default:
					flush(context.Background())
					return
				}
			}
		case rec := <-buffer:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
