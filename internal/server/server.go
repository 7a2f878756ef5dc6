package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tally/internal/backup"
	"github.com/dukerupert/tally/internal/config"
	"github.com/dukerupert/tally/internal/handler"
	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/middleware"
	"github.com/dukerupert/tally/internal/push"
	"github.com/dukerupert/tally/internal/store"
	ws "github.com/dukerupert/tally/internal/websocket"
)

type Server struct {
	cfg           config.Config
	ledger        *ledger.Ledger
	hub           *ws.Hub
	roleH         *handler.RoleHandler
	taskDefH      *handler.TaskDefHandler
	dailyH        *handler.DailyHandler
	calendarH     *handler.CalendarHandler
	rewardH       *handler.RewardHandler
	dataH         *handler.DataHandler
	backupH       *handler.BackupHandler
	pushH         *handler.PushHandler
	reminder      *push.Reminder
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

// New builds the ledger over the document stored in db and wires every
// HTTP handler to it. Extra ledger options are applied after the
// configured timezone.
func New(db *sql.DB, cfg config.Config, logger *slog.Logger, opts ...ledger.Option) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	docs := store.NewDocumentStore(db, cfg.DocumentKey)

	l := ledger.New(docs, logger.With("component", "ledger"),
		append([]ledger.Option{ledger.WithLocation(loc)}, opts...)...)

	backupCfg := backup.Config{
		DocumentKey:   cfg.DocumentKey,
		Passphrase:    cfg.Backup.Passphrase,
		RetentionDays: cfg.Backup.RetentionDays,
	}
	if cfg.Backup.Enabled {
		backupCfg.S3 = backup.S3Config{
			Endpoint:  cfg.Backup.S3Endpoint,
			Bucket:    cfg.Backup.S3Bucket,
			Region:    cfg.Backup.S3Region,
			AccessKey: cfg.Backup.S3AccessKey,
			SecretKey: cfg.Backup.S3SecretKey,
		}
	}
	backupMgr := backup.NewManager(backupCfg, l, store.NewBackupStore(db), logger.With("component", "backup"), func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	})

	// Push reminders, only with VAPID keys
	var pushH *handler.PushHandler
	var reminder *push.Reminder
	if cfg.Push.Enabled() {
		svc := push.NewService(push.Config{
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			Subject:         cfg.Push.Subject,
		})
		pushStore := store.NewPushStore(db)
		pushH = handler.NewPushHandler(l, pushStore, svc, logger.With("component", "push_handler"))
		reminder = push.NewReminder(svc, l, pushStore, logger.With("component", "push"))
	}

	return &Server{
		cfg:           cfg,
		ledger:        l,
		hub:           hub,
		roleH:         handler.NewRoleHandler(l, hub, logger.With("component", "role")),
		taskDefH:      handler.NewTaskDefHandler(l, hub, logger.With("component", "task_def")),
		dailyH:        handler.NewDailyHandler(l, hub, logger.With("component", "daily")),
		calendarH:     handler.NewCalendarHandler(l, logger.With("component", "calendar")),
		rewardH:       handler.NewRewardHandler(l, hub, logger.With("component", "reward")),
		dataH:         handler.NewDataHandler(l, docs, hub, logger.With("component", "data")),
		backupH:       handler.NewBackupHandler(backupMgr, hub, logger.With("component", "backup_handler")),
		pushH:         pushH,
		reminder:      reminder,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}, nil
}

// Ledger returns the ledger for scheduled jobs.
func (s *Server) Ledger() *ledger.Ledger {
	return s.ledger
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// Reminder returns the daily push reminder, or nil when push is not
// configured.
func (s *Server) Reminder() *push.Reminder {
	return s.reminder
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.cfg.AllowedOrigins))

	// Roles
	mux.HandleFunc("GET /api/roles", s.roleH.List)
	mux.HandleFunc("POST /api/roles", s.roleH.Create)
	mux.HandleFunc("DELETE /api/roles/{id}", s.roleH.Delete)

	// Task definitions
	mux.HandleFunc("GET /api/task-defs", s.taskDefH.List)
	mux.HandleFunc("POST /api/task-defs", s.taskDefH.Create)
	mux.HandleFunc("PATCH /api/task-defs/{id}", s.taskDefH.Update)
	mux.HandleFunc("DELETE /api/task-defs/{id}", s.taskDefH.Delete)
	mux.HandleFunc("GET /api/task-defs/{id}/history", s.taskDefH.History)
	mux.HandleFunc("GET /api/task-defs/{id}/schedule", s.taskDefH.Schedule)

	// Daily lists
	mux.HandleFunc("GET /api/daily/{date}", s.dailyH.Get)
	mux.HandleFunc("GET /api/daily/{date}/stats", s.dailyH.Stats)
	mux.HandleFunc("POST /api/daily/{date}/tasks/{taskDefId}/complete", s.dailyH.Complete)
	mux.HandleFunc("DELETE /api/daily/{date}/tasks/{taskDefId}", s.dailyH.Delete)

	mux.HandleFunc("GET /api/calendar/{year}/{month}", s.calendarH.Month)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)

	// Whole-document transfer
	mux.HandleFunc("GET /api/export", s.dataH.Export)
	mux.HandleFunc("POST /api/import", s.rateLimitedHandler(s.dataH.Import))

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.rateLimitedHandler(s.backupH.Create))
	mux.HandleFunc("POST /api/backups/{id}/restore", s.rateLimitedHandler(s.backupH.Restore))

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions", s.pushH.Unsubscribe)
	}

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recover(httpLogger)(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"today":      s.ledger.Today(),
		"ws_clients": s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	limit := s.cfg.ImportRateLimit
	if limit <= 0 {
		return h
	}
	keyFunc := func(r *http.Request) string {
		return fmt.Sprintf("%s %s", r.URL.Path, middleware.RealIP(r))
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, limit, time.Minute)
	return rl(h).ServeHTTP
}
