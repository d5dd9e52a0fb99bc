package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmckenna/chorewheel/internal/backup"
	"github.com/jmckenna/chorewheel/internal/handler"
	"github.com/jmckenna/chorewheel/internal/middleware"
	"github.com/jmckenna/chorewheel/internal/push"
	"github.com/jmckenna/chorewheel/internal/rotation"
	"github.com/jmckenna/chorewheel/internal/scheduler"
	"github.com/jmckenna/chorewheel/internal/sms"
	"github.com/jmckenna/chorewheel/internal/store"
	ws "github.com/jmckenna/chorewheel/internal/websocket"
)

// Config collects everything the server needs beyond the database handle.
type Config struct {
	StaticDir string
	Location  *time.Location

	SMSServerToken string
	SMSFromEmail   string

	Push   push.Config
	Backup backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	personH     *handler.PersonHandler
	assignmentH *handler.AssignmentHandler
	choreH      *handler.ChoreHandler
	resetH      *handler.ResetHandler
	logH        *handler.LogHandler
	settingsH   *handler.SettingsHandler
	pushH       *handler.PushHandler
	manifestH   *handler.ManifestHandler

	settingsStore *store.SettingsStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	scheduler     *scheduler.Scheduler
	staticDir     string
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	personStore := store.NewPersonStore(db)
	choreStore := store.NewChoreStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	resetStore := store.NewResetStore(db)
	logStore := store.NewLogStore(db)
	settingsStore := store.NewSettingsStore(db)
	notifyStore := store.NewNotifyStore(db)
	pushStore := store.NewPushStore(db)

	orchestrator := rotation.NewOrchestrator(
		personStore, choreStore, assignmentStore, resetStore, logStore,
		rotation.NewPartitioner(),
		logger.With("component", "rotation"),
	)

	var pushSvc *push.Service
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push)
	}

	gateway := sms.NewGateway(cfg.SMSServerToken, cfg.SMSFromEmail)

	backupMgr := backup.NewManager(cfg.Backup, db, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, logger.With("component", "backup"))

	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	sched := scheduler.New(
		orchestrator, personStore, assignmentStore, logStore, settingsStore, notifyStore,
		pushStore, gateway, pushSvc, location,
		logger.With("component", "scheduler"),
	)

	return &Server{
		db:            db,
		hub:           hub,
		personH:       handler.NewPersonHandler(personStore, assignmentStore, logStore, hub, logger.With("component", "person")),
		assignmentH:   handler.NewAssignmentHandler(assignmentStore, personStore, logStore, hub, logger.With("component", "assignment")),
		choreH:        handler.NewChoreHandler(choreStore, personStore, hub, logger.With("component", "chore")),
		resetH:        handler.NewResetHandler(orchestrator, hub, logger.With("component", "reset")),
		logH:          handler.NewLogHandler(logStore, personStore, logger.With("component", "activity")),
		settingsH:     handler.NewSettingsHandler(settingsStore, hub, logger.With("component", "settings")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),
		manifestH:     handler.NewManifestHandler(cfg.StaticDir),
		settingsStore: settingsStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		scheduler:     sched,
		staticDir:     cfg.StaticDir,
		logger:        logger,
	}
}

// Scheduler returns the reset/reminder scheduler for lifecycle management.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// BackupManager returns the backup manager for lifecycle management.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Dashboard routes
	mux.HandleFunc("GET /api/dashboard", s.personH.Dashboard)
	mux.HandleFunc("POST /api/assignments/{id}/complete", s.assignmentH.Complete)
	mux.HandleFunc("POST /api/assignments/{id}/uncomplete", s.assignmentH.Uncomplete)
	mux.HandleFunc("POST /api/assignments/{id}/transfer", s.assignmentH.Transfer)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/activity", s.logH.List)
	mux.HandleFunc("GET /api/activity/weekly-summary", s.logH.WeeklySummary)
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)

	// PIN verification, rate limited to slow down guessing
	mux.HandleFunc("POST /api/admin/pin/verify", s.rateLimited(s.settingsH.VerifyPIN))
	mux.HandleFunc("POST /api/admin/pin", s.rateLimited(s.settingsH.SetPIN))

	// Push subscription routes
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Admin routes behind the PIN gate
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("POST /api/admin/people", s.personH.Create)
	adminMux.HandleFunc("PUT /api/admin/people/{id}", s.personH.Update)
	adminMux.HandleFunc("DELETE /api/admin/people/{id}", s.personH.Delete)
	adminMux.HandleFunc("POST /api/admin/people/{id}/paid", s.personH.TogglePaid)
	adminMux.HandleFunc("PUT /api/admin/people/{id}/owed", s.personH.SetOwed)
	adminMux.HandleFunc("POST /api/admin/people/{id}/skip", s.personH.Skip)
	adminMux.HandleFunc("PUT /api/admin/people/{id}/completed", s.assignmentH.EditCompleted)
	adminMux.HandleFunc("POST /api/admin/chores", s.choreH.Create)
	adminMux.HandleFunc("DELETE /api/admin/chores/{id}", s.choreH.Delete)
	adminMux.HandleFunc("POST /api/admin/reset", s.resetH.Manual)
	adminMux.HandleFunc("POST /api/admin/reset-all", s.resetH.All)
	adminMux.HandleFunc("GET /api/admin/reset-preview", s.resetH.Preview)
	adminMux.HandleFunc("PUT /api/admin/settings", s.settingsH.Update)
	adminMux.HandleFunc("DELETE /api/admin/activity", s.logH.Clear)
	adminMux.HandleFunc("POST /api/admin/backup/now", s.backupNow)
	adminMux.HandleFunc("GET /api/admin/backup/status", s.backupStatus)

	pinGate := middleware.RequireAdminPIN(s.settingsStore)
	mux.Handle("/api/admin/", pinGate(adminMux))

	// PWA shell
	mux.HandleFunc("GET /api/cache-manifest", s.manifestH.CacheManifest)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	mux.HandleFunc("GET /health", s.healthHandler)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) backupNow(w http.ResponseWriter, r *http.Request) {
	if err := s.backupManager.RunNow(r.Context()); err != nil {
		s.logger.Error("manual backup", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"uploaded"}`))
}

func (s *Server) backupStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.backupManager.Status())
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
