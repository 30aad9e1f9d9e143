package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"appointment-app-server/internal/config"
	"appointment-app-server/internal/jobs"
	"appointment-app-server/internal/logger"
	"appointment-app-server/internal/models"
	"appointment-app-server/internal/queue"
	"appointment-app-server/internal/recurrence"
	"appointment-app-server/internal/reminders"
	"appointment-app-server/internal/routes"
	"appointment-app-server/internal/store"
)

func main() {
	expandOnce := flag.Bool("expand", false, "run one recurring-appointment expansion pass and exit")
	expandDays := flag.Int("expand-days", 0, "look-ahead window in days for -expand (0 uses config)")
	processDue := flag.Bool("process-due", false, "run one due-reminder sweep and exit")
	dueLimit := flag.Int("due-limit", 0, "max reminders for -process-due (0 uses config)")
	flag.Parse()

	// Load environment variables; a missing .env is fine outside development
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer zlog.Sync()

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Persistence layer
	appointments := store.NewGormAppointments(db)
	clients := store.NewGormClients(db)
	reminderStore := store.NewGormReminders(db)

	// Reminder engine
	notifier := reminders.NewEmailNotifier(cfg.Mailer.SMTPAddr, cfg.Mailer.DefaultFrom, zlog)
	dispatcher := reminders.NewDispatcher(appointments, clients, reminderStore, notifier, zlog)
	exec := queue.New(cfg.Reminder.QueueWorkers, cfg.Reminder.MaxAttempts,
		time.Duration(cfg.Reminder.RetryBackoffSeconds)*time.Second, zlog)
	planner := reminders.NewPlanner(reminderStore, dispatcher, exec, zlog)

	horizonDays := cfg.Reminder.HorizonDays
	if *expandDays > 0 {
		horizonDays = *expandDays
	}
	expander := recurrence.NewExpander(appointments, planner, horizonDays, zlog)

	sweepLimit := cfg.Reminder.SweepLimit
	if *dueLimit > 0 {
		sweepLimit = *dueLimit
	}
	sweep := reminders.NewSweep(appointments, clients, reminderStore, dispatcher, exec, sweepLimit, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exec.Start(ctx)
	defer exec.Stop()

	// One-shot maintenance modes
	if *expandOnce {
		created, err := expander.ExpandAll(ctx)
		if err != nil {
			zlog.Fatal("expansion failed", zap.Error(err))
		}
		fmt.Printf("Created %d appointment instances.\n", created)
		return
	}
	if *processDue {
		processed, errored := sweep.Run(ctx)
		fmt.Printf("Processed %d due reminders (%d errors).\n", processed, errored)
		return
	}

	// Periodic jobs: daily expansion plus the frequent due-reminder sweep
	scheduler := jobs.NewScheduler(zlog)
	if err := scheduler.Register(jobs.Job{
		Name: "expand-recurring-appointments",
		Spec: cfg.Reminder.ExpandCron,
		Run: func(ctx context.Context) {
			if _, err := expander.ExpandAll(ctx); err != nil {
				zlog.Error("scheduled expansion failed", zap.Error(err))
			}
		},
	}); err != nil {
		zlog.Fatal("failed to register expansion job", zap.Error(err))
	}
	if err := scheduler.Register(jobs.Job{
		Name: "process-due-reminders",
		Spec: cfg.Reminder.SweepCron,
		Run: func(ctx context.Context) {
			sweep.Run(ctx)
		},
	}); err != nil {
		zlog.Fatal("failed to register sweep job", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Deps{
		DB:           db,
		Cfg:          cfg,
		Appointments: appointments,
		Clients:      clients,
		Reminders:    reminderStore,
		Planner:      planner,
		Expander:     expander,
		Sweep:        sweep,
		Log:          zlog,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
}
