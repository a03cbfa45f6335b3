package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"draftflow/ai"
	"draftflow/audit"
	"draftflow/auth"
	"draftflow/config"
	"draftflow/db"
	"draftflow/dispute"
	"draftflow/document"
	"draftflow/httpapi"
	"draftflow/lawyer"
	"draftflow/notification"
	"draftflow/payout"
	"draftflow/review"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, rate limiting disabled: %v", err)
			rdb = nil
		}
	}

	var sender notification.Sender
	switch cfg.EmailService {
	case "sendgrid":
		sender = notification.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom)
	default:
		sender = notification.LogSender{}
	}

	var events notification.EventPublisher
	if cfg.AMQPURL != "" {
		events = notification.NewAMQPPublisher(cfg.AMQPURL)
	}

	notificationRepo := notification.NewRepository(pool)
	notifier := notification.NewNotifier(notificationRepo, sender, events, nil)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.JWTSecret).WithWelcomeNotifier(notifier)

	lawyerRepo := lawyer.NewRepository(pool)
	lawyerService := lawyer.NewService(lawyerRepo)

	documentRepo := document.NewRepository(pool)
	documentService := document.NewService(documentRepo, ai.NewTemplateGenerator())

	reviewService := review.NewService(pool, review.NewStore(pool), documentRepo, lawyerRepo, authRepo).
		WithNotifier(notifier)

	payoutService := payout.NewService(pool, payout.NewStore(pool), lawyerRepo).
		WithNotifier(notifier)

	disputeService := dispute.NewService(dispute.NewRepository(pool))

	auditRecorder := audit.NewRecorder(pool, nil)

	server := httpapi.NewServer(httpapi.Deps{
		Auth:          authService,
		Documents:     documentService,
		Reviews:       reviewService,
		Payouts:       payoutService,
		Lawyers:       lawyerService,
		Disputes:      disputeService,
		Notifications: notificationRepo,
		Audits:        auditRecorder,
		AuditRecorder: auditRecorder,
		Redis:         rdb,
		Limits: httpapi.RateLimits{
			API:        httpapi.Limit{Burst: cfg.RateLimitBurst, Refill: cfg.RateLimitRefill},
			Auth:       httpapi.Limit{Burst: cfg.AuthLimitBurst, Refill: 3 * time.Minute},
			Generation: httpapi.Limit{Burst: cfg.GenerationLimitBurst, Refill: 6 * time.Minute},
		},
	})

	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
