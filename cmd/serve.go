package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/commands/site"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/processors"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/query"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	"github.com/Builder-Lawyers/hosting-backend/internal/presentation/host"
	"github.com/Builder-Lawyers/hosting-backend/internal/presentation/rest"
	"github.com/Builder-Lawyers/hosting-backend/internal/presentation/scheduler"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
)

var (
	apiAddr    string
	routerAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the management API and the hosting router",
	Long: `Run the management API and the Host header router side by side.

Examples:
  hosting serve
  hosting serve --api-addr :8080 --router-addr :3001 --root /srv/sites`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&apiAddr, "api-addr", "", "Management API listen address (overrides API_ADDR)")
	serveCmd.Flags().StringVar(&routerAddr, "router-addr", "", "Hosting router listen address (overrides HOSTING_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	hostingCfg := hostingConfig()
	if routerAddr != "" {
		hostingCfg.RouterAddr = routerAddr
	}
	apiConfig := config.NewAPIConfig()
	if apiAddr != "" {
		apiConfig.Addr = apiAddr
	}

	// DB
	uowFactory, err := newUoWFactory(ctx)
	if err != nil {
		return err
	}
	defer uowFactory.Pool.Close()

	// Hosting
	fsStore, closeStore, err := newStore(ctx, hostingCfg)
	if err != nil {
		return err
	}
	defer closeStore()
	manager, err := newManager(hostingCfg, fsStore)
	if err != nil {
		return err
	}

	identityProvider, err := auth.NewIdentityProvider(ctx, auth.NewConfig())
	if err != nil {
		return fmt.Errorf("can't set up token verification, %v", err)
	}

	handlers := &application.Handlers{
		DeploySite:      site.NewDeploySite(uowFactory, manager),
		UndeploySite:    site.NewUndeploySite(uowFactory, manager),
		RedeploySite:    site.NewRedeploySite(uowFactory, manager),
		EnableSSL:       site.NewEnableSSL(uowFactory, manager),
		UpdateContent:   site.NewUpdateContent(uowFactory),
		ExportSite:      query.NewExportSite(uowFactory, manager),
		ListHostedSites: query.NewListHostedSites(manager),
		GetHostedSite:   query.NewGetHostedSite(manager),
		CheckSubdomain:  query.NewCheckSubdomain(fsStore),
	}

	// Mirror
	s3Mirror, err := newMirror(ctx)
	if err != nil {
		return err
	}
	var mirror processors.Mirror
	if s3Mirror != nil {
		mirror = s3Mirror
	}
	outboxPoller := scheduler.NewOutboxPoller(&application.Processors{
		MirrorSite:   processors.NewMirrorSite(mirror, fsStore),
		UnmirrorSite: processors.NewUnmirrorSite(mirror, fsStore),
	}, uowFactory, scheduler.NewOutboxConfig())
	go outboxPoller.Start()

	api := fiber.New(fiber.Config{
		IdleTimeout:  5 * time.Second,
		ErrorHandler: rest.ErrorHandler,
		BodyLimit:    8 * 1024 * 1024,
	})
	api.Use(cors.New(cors.Config{
		AllowOrigins:     apiConfig.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	api.Use(rest.Authenticate(identityProvider))
	rest.RegisterHandlers(api, rest.NewServer(handlers))

	router := host.NewApp(host.NewRouter(hostingCfg, fsStore))

	errCh := make(chan error, 2)
	go func() {
		slog.Info("management api listening", "addr", apiConfig.Addr)
		errCh <- api.Listen(apiConfig.Addr)
	}()
	go func() {
		slog.Info("hosting router listening", "addr", hostingCfg.RouterAddr, "root", hostingCfg.Root,
			"base_domain", hostingCfg.BaseDomain)
		errCh <- router.Listen(hostingCfg.RouterAddr)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		slog.Info("Gracefully shutting down...")
	case err = <-errCh:
		slog.Error("listener stopped", "err", err)
	}

	_ = api.ShutdownWithTimeout(10 * time.Second)
	_ = router.ShutdownWithTimeout(10 * time.Second)
	outboxPoller.Stop()

	slog.Info("Running cleanup tasks...")
	return err
}
