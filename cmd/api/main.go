package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/featreq/feature-requestor/docs"
	"github.com/featreq/feature-requestor/internal/clientapp"
	"github.com/featreq/feature-requestor/internal/comment"
	"github.com/featreq/feature-requestor/internal/config"
	"github.com/featreq/feature-requestor/internal/database"
	"github.com/featreq/feature-requestor/internal/message"
	"github.com/featreq/feature-requestor/internal/notification"
	"github.com/featreq/feature-requestor/internal/payout"
	"github.com/featreq/feature-requestor/internal/request"
	"github.com/featreq/feature-requestor/internal/user"
	"github.com/featreq/feature-requestor/pkg/logger"
	"github.com/featreq/feature-requestor/pkg/mailer"
	mw "github.com/featreq/feature-requestor/pkg/middleware"
)

// @title           Feature Requestor API
// @version         1.0
// @description     Feature requests with bids, payout splitting and notification digests.
// @BasePath        /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	log := logger.New()
	defer log.Sync()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("connected to database")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	mail := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPTimeout)
	rates := payout.NewStaticRates()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, cfg.JWTSecret, mail, cfg.BaseURL, log)
	userHandler := user.NewHandler(userService)
	users := &userAdapter{repo: userRepo}

	// Notification feature, with the digest queue and its scheduler
	notificationRepo := notification.NewRepository(db)
	digestQueue := notification.NewQueue(cfg.DigestWindow)
	notificationService := notification.NewService(notificationRepo, digestQueue, mail, users, cfg.BaseURL, log)
	notificationHandler := notification.NewHandler(notificationService)
	scheduler := notification.NewScheduler(digestQueue, notificationService, cfg.TickInterval, cfg.MaxSendRetries, log)
	notifier := &notifierAdapter{service: notificationService}

	// Client app feature
	appRepo := clientapp.NewRepository(db)
	appService := clientapp.NewService(appRepo)
	appHandler := clientapp.NewHandler(appService)

	// Feature request, comment and payout features share the request repo
	requestRepo := request.NewRepository(db)

	commentRepo := comment.NewRepository(db)
	commentService := comment.NewService(commentRepo, requestRepo, users, notifier, rates, cfg.ReferenceCurrency, log)
	commentHandler := comment.NewHandler(commentService)

	payoutRepo := payout.NewRepository(db)
	payoutService := payout.NewService(
		payoutRepo,
		&requestAdapter{repo: requestRepo},
		commentService,
		&paymentNotifier{service: notificationService},
		payout.NewRedisGuard(redisClient),
		payout.NewLogGateway(log),
		rates,
		cfg.ReferenceCurrency,
		log,
	)
	payoutHandler := payout.NewHandler(payoutService)

	requestService := request.NewService(requestRepo, &appAdapter{repo: appRepo}, notifier, payoutService,
		cfg.SimilarThreshold, cfg.SimilarMaxResults, log)
	requestHandler := request.NewHandler(requestService)

	// Messaging feature
	messageRepo := message.NewRepository(db)
	messageService := message.NewService(messageRepo, users, notifier, log)
	messageHandler := message.NewHandler(messageService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", userHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(cfg.JWTSecret))

			r.Mount("/users", userHandler.ProtectedRoutes())
			r.Mount("/apps", appHandler.Routes())
			r.Mount("/requests", requestHandler.Routes())
			r.Mount("/comments", commentHandler.Routes())
			r.Mount("/payouts", payoutHandler.Routes())
			r.Mount("/messages", messageHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Digest scheduler runs until shutdown
	go scheduler.Run(ctx)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
}

// userAdapter exposes the user repository to packages that only need a name
// or an email address.
type userAdapter struct {
	repo *user.Repository
}

func (a *userAdapter) Recipient(ctx context.Context, userID int64) (string, string, error) {
	u, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if u == nil {
		return "", "", nil
	}
	return u.Email, u.Name, nil
}

func (a *userAdapter) DisplayName(ctx context.Context, userID int64) (string, error) {
	u, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("user %d not found", userID)
	}
	return u.Name, nil
}

// notifierAdapter routes domain events into the notification service
type notifierAdapter struct {
	service *notification.Service
}

func (a *notifierAdapter) Notify(ctx context.Context, userID int64, notificationType string, data map[string]string) error {
	_, err := a.service.Create(ctx, userID, notificationType, data)
	return err
}

// paymentNotifier tells a developer they were paid
type paymentNotifier struct {
	service *notification.Service
}

func (a *paymentNotifier) PaymentReceived(ctx context.Context, developerID int64, amount, currency, title string) error {
	_, err := a.service.Create(ctx, developerID, notification.TypePaymentReceived, map[string]string{
		"amount":   amount,
		"currency": currency,
		"title":    title,
	})
	return err
}

// appAdapter resolves client apps for the request service
type appAdapter struct {
	repo *clientapp.Repository
}

func (a *appAdapter) App(ctx context.Context, appID int64) (int64, string, error) {
	app, err := a.repo.GetByID(ctx, appID)
	if err != nil {
		return 0, "", err
	}
	if app == nil {
		return 0, "", fmt.Errorf("app %d not found", appID)
	}
	return app.OwnerID, app.DisplayName, nil
}

// requestAdapter exposes feature request details to the payout service
type requestAdapter struct {
	repo *request.Repository
}

func (a *requestAdapter) RequestTitle(ctx context.Context, requestID int64) (string, error) {
	fr, err := a.repo.GetByID(ctx, requestID)
	if err != nil {
		return "", err
	}
	if fr == nil {
		return "", request.ErrRequestNotFound
	}
	return fr.Title, nil
}

func (a *requestAdapter) RequestDevelopers(ctx context.Context, requestID int64) ([]payout.Developer, error) {
	developers, err := a.repo.ListDevelopers(ctx, requestID)
	if err != nil {
		return nil, err
	}
	result := make([]payout.Developer, len(developers))
	for i, dev := range developers {
		result[i] = payout.Developer{ID: dev.ID, PreferredCurrency: dev.PreferredCurrency}
	}
	return result, nil
}
