package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travelatlas/internal/ai"
	intconfig "travelatlas/internal/config"
	intdb "travelatlas/internal/db"
	router "travelatlas/internal/http"
	h "travelatlas/internal/http/handlers"
	"travelatlas/internal/logging"
	"travelatlas/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		logging.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: env.LogLevel, Format: env.LogFormat})
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		logging.Error().Err(err).Msg("database connection failed")
		os.Exit(1)
	}
	defer intconfig.CloseDB()

	if env.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := intdb.Migrate(ctx, db)
		cancel()
		if err != nil {
			logging.Error().Err(err).Msg("migration failed")
			os.Exit(1)
		}
	}

	client, err := ai.New(ai.Options{
		Provider:  env.LLMProvider,
		APIKey:    env.LLMAPIKey(),
		Model:     env.LLMModel,
		MaxTokens: env.LLMMaxTokens,
		Timeout:   env.LLMTimeout,
	})
	if err != nil {
		logging.Error().Err(err).Msg("llm client setup failed")
		os.Exit(1)
	}
	if env.LLMAPIKey() == "" {
		logging.Warn().Str("provider", env.LLMProvider).Msg("no llm api key, ai endpoints will answer 503")
	}

	dispatcher := services.NewDispatcher(client, env.GenerationWorkers, env.LLMTimeout)
	if _, err := dispatcher.RecoverInterrupted(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("interrupted generation recovery failed")
	}
	dispatcher.Start(context.Background())

	h.Configure(h.Deps{Env: env, AI: client, Dispatcher: dispatcher})
	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// chat calls wait on the model
		WriteTimeout: env.LLMTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", env.AppAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Stop(ctx); err != nil {
		logging.Error().Err(err).Msg("generation workers did not stop in time")
	}

	logging.Info().Msg("server stopped")
}
