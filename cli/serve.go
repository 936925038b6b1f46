package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tree-tracker/models"
	"tree-tracker/server"
	"tree-tracker/services"
	"tree-tracker/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = a.cfg.HTTPAddr
		}
		if !a.cfg.Verbose && !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		return a.withStore(func(store storage.TreeStore) error {
			var sinks []storage.TreeWriter
			idx := a.openIndex()
			if idx != nil {
				sinks = append(sinks, idx)
			}
			recorder := services.NewRecorder(store, a.cfg.WriteConcurrency, a.cfg.WriteRateLimitMs, a.logger, sinks...)
			defer recorder.Wait()

			h := &server.Handler{
				Catalog:  a.catalog,
				Forms:    a.formService(),
				Benefits: a.benefitsService(),
				Recorder: recorder,
				Reports:  services.NewInsightService(a.logger),
				Store:    store,
				Index:    idx,
				NewResolver: func(coords models.Coordinates) server.LocationResolver {
					return a.resolver(coords)
				},
				Logger: a.logger,
			}
			if coords, ok := a.deviceCoords(0, 0); ok {
				h.DefaultPosition = &coords
			} else {
				a.logger.Info("[serve] No device position configured; clients must send coordinates to resolve a location")
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.SetupRouter(h, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("[serve] Listening on %s", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("[serve] Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")
}
