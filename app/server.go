package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

func (app *application) newServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}
}

// serve blocks until the listener fails or SIGINT/SIGTERM arrives. On a signal it drains
// in-flight requests and then stops the mail consumer.
func (app *application) serve(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := app.newServer(addr)

	listenErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", addr), slog.String("env", app.config.Environment))
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	app.mailService.Close()
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", slog.String("addr", addr))
	return nil
}
