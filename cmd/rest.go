package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/crmkit/wabridge/config"
	"github.com/crmkit/wabridge/infrastructure/objectstore"
	"github.com/crmkit/wabridge/infrastructure/storage"
	"github.com/crmkit/wabridge/infrastructure/whatsapp"
	"github.com/crmkit/wabridge/ui/rest"
	"github.com/crmkit/wabridge/ui/rest/middleware"
	"github.com/crmkit/wabridge/usecase"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the bridge HTTP API",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	if err := config.Validate(); err != nil {
		logrus.Fatalln("Invalid configuration:", err)
	}

	ctx := context.Background()

	db, err := storage.Open(config.DBURI, config.AppDebug)
	if err != nil {
		logrus.Fatalln("Opening database:", err)
	}

	waDBLog := waLog.Stdout("Database", config.WhatsappLogLevel, true)
	container, err := sqlstore.New(ctx, "postgres", config.WaStoreDSN, waDBLog)
	if err != nil {
		logrus.Fatalln("Opening whatsapp device store:", err)
	}

	sessionStore := storage.NewSessionStore(db)
	credentialStore := storage.NewCredentialStore(db)
	repo := storage.NewRepository(db)
	objects := objectstore.NewClient(config.StorageEndpoint, config.StorageBucket, config.StorageAccessKey)

	registry := whatsapp.NewRegistry()
	manager := whatsapp.NewManager(
		registry,
		container,
		sessionStore,
		credentialStore,
		repo,
		objects,
		waLog.Stdout("Client", config.WhatsappLogLevel, true),
	)

	sessionUsecase := usecase.NewSessionService(manager, sessionStore)
	sendUsecase := usecase.NewSendService(manager, repo, sessionStore, objects)
	healthUsecase := usecase.NewHealthService(registry)

	app := fiber.New(fiber.Config{
		AppName:      "WaBridge",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	if config.AppDebug {
		app.Use(logger.New())
	}

	rest.InitRestHealth(app, healthUsecase)

	api := app.Group("/api", middleware.SharedSecret())
	rest.InitRestSession(api, sessionUsecase)
	rest.InitRestMessage(api, sendUsecase)

	go manager.RestoreActiveSessions(ctx)

	go func() {
		if err := app.Listen(":" + config.AppPort); err != nil {
			logrus.Fatalln("HTTP server stopped:", err)
		}
	}()
	logrus.Infof("WaBridge %s listening on :%s", config.AppVersion, config.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	// Close connections without logging out so sessions resume on next boot.
	logrus.Info("Shutting down")
	manager.Shutdown()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.Errorln("HTTP shutdown:", err)
	}
}
