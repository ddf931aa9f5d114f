package main

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

	"github.com/campusevents/campus-events/config"
	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/auth"
	"github.com/campusevents/campus-events/internal/consumer"
	"github.com/campusevents/campus-events/internal/handler"
	"github.com/campusevents/campus-events/internal/middleware"
	"github.com/campusevents/campus-events/internal/repository"
	"github.com/campusevents/campus-events/internal/service"
	"github.com/campusevents/campus-events/internal/ticketing"
	"github.com/campusevents/campus-events/internal/web"
	"github.com/campusevents/campus-events/pkg/database"
	"github.com/campusevents/campus-events/pkg/mongodb"
	"github.com/campusevents/campus-events/pkg/rabbitmq"
	"github.com/campusevents/campus-events/pkg/redisdb"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
)

const usage = `usage: campus-events [command]

commands:
  (none)           run the web server
  init-db          create or update the database schema
  promote <email>  give an existing user the admin role`

func main() {
	cfg := config.Load()

	args := os.Args[1:]
	if len(args) == 0 {
		serve(cfg)
		return
	}

	switch args[0] {
	case "init-db":
		initDB(cfg)
	case "promote":
		if len(args) != 2 {
			log.Fatal(usage)
		}
		promote(cfg, args[1])
	default:
		log.Fatal(usage)
	}
}

func initDB(cfg *config.Config) {
	db := database.NewPostgresDB(cfg.DSN())
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	fmt.Println("Initialized the database.")
}

func promote(cfg *config.Config, email string) {
	db := database.NewPostgresDB(cfg.DSN())
	defer database.Close(db)

	authSvc := service.NewAuthService(repository.NewUserRepository(db), auth.NewTokenManager(cfg.SecretKey, cfg.TokenTTL), auth.NopRevoker{}, audit.Nop{}, cfg.IsAdminEmail)
	user, err := authSvc.Promote(context.Background(), email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fmt.Fprintf(os.Stderr, "No user with email %s.\n", email)
			os.Exit(1)
		}
		log.Fatalf("promote: %v", err)
	}
	fmt.Printf("Promoted %s to admin.\n", user.Email)
}

// auditStack holds whatever audit infrastructure was started so it can be
// torn down in order.
type auditStack struct {
	logger    audit.Logger
	sink      *audit.MongoSink
	publisher *rabbitmq.Publisher
	consumer  *rabbitmq.Consumer
	drained   <-chan struct{}
	close     []func()
}

func startAudit(ctx context.Context, cfg *config.Config) *auditStack {
	stack := &auditStack{logger: audit.Nop{}}
	if cfg.DisableAudit || cfg.MongoURI == "" {
		log.Println("[Audit] disabled")
		return stack
	}

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Printf("[Audit] mongo unavailable, audit disabled: %v", err)
		return stack
	}
	stack.close = append(stack.close, func() { mongodb.Disconnect(client) })
	stack.sink = audit.NewMongoSink(client.Database(cfg.MongoDB), audit.SourceWeb)
	stack.logger = stack.sink

	if cfg.RabbitURL == "" {
		return stack
	}

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Printf("[Audit] rabbitmq unavailable, writing to mongo directly: %v", err)
		return stack
	}
	mq, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		pub.Close()
		log.Printf("[Audit] rabbitmq consumer failed, writing to mongo directly: %v", err)
		return stack
	}
	msgs, err := mq.Consume()
	if err != nil {
		pub.Close()
		mq.Close()
		log.Printf("[Audit] rabbitmq consume failed, writing to mongo directly: %v", err)
		return stack
	}

	auditConsumer := consumer.NewAuditConsumer(stack.sink)
	auditConsumer.Start(msgs)

	stack.publisher = pub
	stack.consumer = mq
	stack.drained = auditConsumer.Done()
	stack.logger = audit.NewBrokerSink(pub, audit.SourceWeb)
	return stack
}

func (s *auditStack) shutdown() {
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.consumer != nil {
		s.consumer.Close()
		select {
		case <-s.drained:
		case <-time.After(5 * time.Second):
			log.Println("[Audit] consumer did not drain in time")
		}
	}
	if s.sink != nil {
		s.sink.Close()
	}
	for i := len(s.close) - 1; i >= 0; i-- {
		s.close[i]()
	}
}

func serve(cfg *config.Config) {
	ctx := context.Background()

	db := database.NewPostgresDB(cfg.DSN())
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	audits := startAudit(ctx, cfg)
	defer audits.shutdown()

	var revoker auth.Revoker = auth.NopRevoker{}
	if cfg.RedisURL != "" {
		rdb, err := redisdb.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		revoker = auth.NewRedisRevoker(rdb)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Services
	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.TokenTTL)
	ticketSvc := service.NewTicketService(ticketing.NewClient(cfg), bookingRepo, userRepo, audits.logger)
	authSvc := service.NewAuthService(userRepo, tokens, revoker, audits.logger, cfg.IsAdminEmail)
	eventSvc := service.NewEventService(eventRepo, bookingRepo, audits.logger)
	bookingSvc := service.NewBookingService(bookingRepo, eventRepo, ticketSvc, audits.logger)

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = middleware.ClientIPExtractor(cfg.TrustProxy)
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewValidator()
	e.Renderer = renderer
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(web.FlashMiddleware(cfg.SecretKey))
	e.Use(middleware.LoadUser(authSvc))

	limiter := middleware.NewRateLimiter(10, 5)

	handler.NewEventHandler(eventSvc).RegisterRoutes(e)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)
	handler.NewAuthHandler(authSvc, bookingSvc, limiter).RegisterRoutes(e)
	handler.NewTicketHandler(ticketSvc).RegisterRoutes(e)
	handler.NewDebugHandler(audits.logger).RegisterRoutes(e)

	corsMw := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      corsMw.Handler(e),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Campus Events starting on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
