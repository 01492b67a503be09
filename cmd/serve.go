package cmd

import (
	"github.com/spf13/cobra"

	"carcat/internal/server"
	"carcat/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog API",
	Long: `Serve the catalog read API with a response cache in front of it.

Routes:
  GET    /health
  GET    /api/cars             (make, model, fuelType, minYear, maxYear, available, limit, offset)
  GET    /api/cars/{id}
  GET    /api/cache/stats      (admin)
  DELETE /api/cache[?key=]     (admin)
  POST   /api/cache/cleanup    (admin)
  POST   /api/import           (admin, JSON body)
  GET    /metrics

Admin routes require "Authorization: Bearer <server.admin_token>" when a token
is configured.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	store, err := utils.OpenCatalog(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	c := utils.NewCache(cfg, logger)
	defer c.Close()

	srv := server.New(store, c,
		server.WithLogger(logger),
		server.WithAdminToken(cfg.Server.AdminToken),
		server.WithResponseTTL(cfg.Cache.ResponseTTL),
	)

	return srv.ListenAndServe(cmd.Context(), addr)
}
