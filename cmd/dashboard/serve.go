package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/consulta-dashboard/backend"
	"github.com/jrsteele09/consulta-dashboard/internal/config"
	"github.com/jrsteele09/consulta-dashboard/server"
	"github.com/jrsteele09/consulta-dashboard/sessions"
	"github.com/jrsteele09/consulta-dashboard/sessions/redisrepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var _ server.Backend = (*backend.Client)(nil)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the dashboard gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(config.New())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	api, err := backend.New(c.GetBackendURL(), backend.WithTimeout(c.GetBackendTimeout()))
	if err != nil {
		return errors.Wrap(err, "[run] failed to create backend client")
	}

	repo, closeRepo, err := sessionRepo(c)
	if err != nil {
		return err
	}
	defer closeRepo()

	srv, err := server.New(c, api, repo)
	if err != nil {
		return errors.Wrap(err, "[run] failed to create server")
	}
	defer srv.Shutdown()

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// sessionRepo picks Redis when REDIS_URL is set, otherwise process memory
func sessionRepo(c config.Config) (sessions.Repo, func(), error) {
	if c.GetRedisURL() == "" {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		return sessions.NewInMemoryRepo(), func() {}, nil
	}

	repo, err := redisrepo.New(c.GetRedisURL(), c.GetIdleTimeout())
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, errors.Wrap(err, "[sessionRepo] redis unreachable")
	}
	return repo, func() { _ = repo.Close() }, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
