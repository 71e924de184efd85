package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/travelbot/internal/app"
	"github.com/Ayash-Bera/travelbot/internal/config"
	"github.com/Ayash-Bera/travelbot/internal/repl"
	"github.com/Ayash-Bera/travelbot/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the conversation
		a, logger, err := bootstrap(cmd.Context(), os.Stderr)
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), a, a.Agent, logger, os.Stdin, os.Stdout)
	},
}

// runChat drives the terminal conversation and releases resources when it
// ends, whether or not the session failed.
func runChat(ctx context.Context, resources io.Closer, runner repl.Runner, logger *logrus.Logger, in io.Reader, out io.Writer) error {
	defer resources.Close()

	if err := repl.Run(ctx, in, out, runner, utils.NewSessionID()); err != nil {
		logger.WithError(err).Error("Chat session ended")
		return err
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web chat and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, logger, err := bootstrap(ctx, os.Stdout)
		if err != nil {
			return err
		}
		defer a.Close()

		if port, _ := cmd.Flags().GetString("port"); port != "" {
			a.Config.Server.Port = port
		}

		if logger.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		router, stopCleanup, err := a.Router()
		if err != nil {
			return err
		}
		defer stopCleanup()

		server := &http.Server{
			Addr:              ":" + a.Config.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.WithField("port", a.Config.Server.Port).Info("Starting web server")
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("Shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port to listen on, overrides SERVER_PORT")
}

// bootstrap loads configuration and builds the App, logging to out.
func bootstrap(ctx context.Context, out io.Writer) (*app.App, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := utils.NewLogger(cfg.LogLevel, out)
	logger.WithFields(logrus.Fields{
		"llm_model":       cfg.LLM.Model,
		"embedding_model": cfg.Embedding.Model,
		"cache_enabled":   cfg.Redis.URL != "",
	}).Info("Starting travel assistant")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to start travel assistant")
		return nil, nil, err
	}
	return a, logger, nil
}
