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

	"github.com/justsurfingit/Resume-Journal/internal/config"
	"github.com/justsurfingit/Resume-Journal/internal/database"
	"github.com/justsurfingit/Resume-Journal/internal/handlers"
	"github.com/justsurfingit/Resume-Journal/internal/services"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()

	// 2. Database Connection
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// 3. Initialize Core Services (Dependencies)
	locks := services.NewKeyedMutex()
	llmService := services.NewLLMService(context.Background(), cfg.AI)
	jobService := services.NewJobService(db)
	overlays := services.NewOverlayStore(db, locks)
	resolver := services.NewResolver(db, cfg.Resume.ScoreTieBreak)
	optimizer := services.NewOptimizer(llmService, overlays, jobService, cfg.AI.Timeout)
	applications := services.NewApplicationService(db, locks)

	// 4. Initialize Handlers and Routes
	router := &handlers.Router{
		Jobs:         handlers.NewJobHandler(jobService),
		Resume:       handlers.NewResumeHandler(resolver, cfg.Resume.PreviewPoints),
		AI:           handlers.NewAIHandler(optimizer, llmService, overlays),
		Applications: handlers.NewApplicationHandler(applications),
		AllowOrigins: cfg.CORSAllowOrigins,
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.Engine(),
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Goodbye")
}
