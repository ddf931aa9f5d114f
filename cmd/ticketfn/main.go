// Command ticketfn serves the ticket functions (QR, email, check-in) that the
// web application calls over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusevents/campus-events/config"
	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/functions"
	"github.com/campusevents/campus-events/pkg/database"
	"github.com/campusevents/campus-events/pkg/mongodb"
)

func main() {
	cfg := config.LoadFunctions()
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	var auditLog audit.Logger = audit.Nop{}
	if !cfg.DisableAudit && cfg.MongoURI != "" {
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Printf("[Audit] mongo unavailable, audit disabled: %v", err)
		} else {
			defer mongodb.Disconnect(client)
			sink := audit.NewMongoSink(client.Database(cfg.MongoDB), audit.SourceFunction)
			defer sink.Close()
			auditLog = sink
		}
	}

	var mailer functions.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = functions.NewSendGrid(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridBaseURL)
	}

	server := functions.NewServer(cfg, functions.NewPgTicketStore(pool), mailer, auditLog)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Ticket functions listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down ticket functions")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
