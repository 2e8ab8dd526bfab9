package commands

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/bridge"
)

func newServeCommand() *cobra.Command {
	var envPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envPath)
		},
	}

	cmd.Flags().StringVar(&envPath, "env", "", "path to a .env file (default: ./.env if present)")

	return cmd
}

func runServe(envPath string) error {
	cfg, store, engine, err := openEngine(envPath)
	if err != nil {
		return err
	}
	defer store.Close()

	handler := api.NewHandler(engine, bridge.New(engine, cfg.AutoPost))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Ledger engine listening on http://localhost%s", cfg.Server.Addr())
		log.Printf("API available at http://localhost%s/api", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	log.Println("Server stopped")
	return nil
}
