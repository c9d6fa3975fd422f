package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"push-manager/core/loader"
	"push-manager/core/logger"
	"push-manager/core/middleware/auth"
	"push-manager/core/middleware/rayid"
	"push-manager/core/token"

	"push-manager/feature/health"
	"push-manager/feature/subscription"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "push-manager/docs/swagger"
)

// @title Push Manager API
// @version 1.0
// @description API for reconciling push notification category subscriptions.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the push manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := newStack(nil)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		issuer, err := token.NewIssuer(rt.cfg.Session, nil)
		if err != nil {
			logg.Warn("Session tokens unavailable, subscription feature disabled", zap.Error(err))
			issuer = nil
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           rt.cfg.Server.ReadTimeout(),
			WriteTimeout:          rt.cfg.Server.WriteTimeout(),
		})

		sessions := rt.subscriptions()

		mgr := loader.NewManager(logg)
		mgr.Register(health.NewFeature(rt.storage, rt.cfg.Storage.Bucket, rt.cfg.Storage.CatalogObject, rt.db, rt.catalogs, sessions, logg))
		mgr.Register(subscription.NewFeature(sessions, issuer, logg))

		// RayID first so every log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, Skip: []string{"/health"}}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("addr", rt.cfg.Server.Addr()))
			if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
		sessions.CloseAll()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
