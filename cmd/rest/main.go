package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mythril-io/mythril/internal/auth"
	"github.com/mythril-io/mythril/internal/database/dbretry"
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/redis"
	"github.com/mythril-io/mythril/internal/rest"
	"github.com/mythril-io/mythril/internal/setup"
	"github.com/mythril-io/mythril/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// RESTLogDir specifies where REST server log files are stored.
const RESTLogDir = "logs/rest_logs"

var ErrUserIDRequired = errors.New("USER_ID argument required")

func main() {
	app := &cli.Command{
		Name:  "rest",
		Usage: "Reaction REST API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the REST server",
				Action: serve,
			},
			{
				Name:      "token",
				Usage:     "Mint an access token for an existing user",
				ArgsUsage: "USER_ID",
				Action:    mintToken,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM.
func serve(ctx context.Context, _ *cli.Command) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceAPI, RESTLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	limiterClient, err := app.RedisManager.GetClient(redis.RatelimitDBIndex)
	if err != nil {
		return err
	}

	serverCfg := &app.Config.API.Server
	handler, err := rest.NewServer(app.DB, limiterClient, auth.NewTokenManager(&app.Config.API.Auth), app.Logger, &app.Config.API)
	if err != nil {
		return fmt.Errorf("failed to create REST server: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(serverCfg.ReadTimeout) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(serverCfg.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.Logger.Info("REST server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serverErr:
		if err != nil {
			app.Logger.Error("Failed to start server", zap.Error(err))
			return err
		}
	}

	app.Logger.Info("Shutting down REST server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(serverCfg.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
	return nil
}

// mintToken prints a signed access token for a user that exists in the database.
func mintToken(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return ErrUserIDRequired
	}

	userID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("%w: %q", types.ErrInvalidIdentifier, c.Args().First())
	}

	app, err := setup.InitializeApp(ctx, telemetry.ServiceAPI, RESTLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	exists, err := dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		return app.DB.Model().User().Exists(ctx, userID)
	})
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %d", types.ErrUserNotFound, userID)
	}

	token, err := auth.NewTokenManager(&app.Config.API.Auth).Generate(userID)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
