package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	connRepo "github.com/draftcast/draftcast/connections/repository"
	contentRepo "github.com/draftcast/draftcast/content/repository"
	coreconfig "github.com/draftcast/draftcast/core/config"
	coreDB "github.com/draftcast/draftcast/core/database"
	"github.com/draftcast/draftcast/infrastructure/valkey"
	notifRepo "github.com/draftcast/draftcast/notifications/repository"
	"github.com/draftcast/draftcast/notifications/webpush"
	"github.com/draftcast/draftcast/platform/linkedin"
	"github.com/draftcast/draftcast/publisher"
	uiRest "github.com/draftcast/draftcast/ui/rest"
	"github.com/draftcast/draftcast/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the management API and the publish trigger over HTTP",
	Run:   restServer,
}

func init() {
	restCmd.Flags().String("basic-auth", "", "Basic auth for the management API (format: user:pass,user2:pass2)")
	rootCmd.AddCommand(restCmd)
}

func restServer(cmd *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	if baFlag, _ := cmd.Flags().GetString("basic-auth"); baFlag != "" {
		cfg.App.BasicAuth = strings.Split(baFlag, ",")
	}

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalln("Failed to open database:", err)
	}

	contents := contentRepo.NewContentGormRepository(db)
	connections := connRepo.NewConnectionGormRepository(db)
	targets := notifRepo.NewTargetGormRepository(db)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := contents.Init(initCtx); err != nil {
		logrus.Fatalln("Content schema migration failed:", err)
	}
	if err := connections.Init(initCtx); err != nil {
		logrus.Fatalln("Connection schema migration failed:", err)
	}
	if err := targets.Init(initCtx); err != nil {
		logrus.Fatalln("Notification schema migration failed:", err)
	}

	// Run-level lock is optional: without Valkey the per-item claim still
	// prevents double-publish across overlapping triggers.
	var lockFunc publisher.LockFunc
	if cfg.Database.ValkeyEnabled {
		vk, err := valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("Valkey unavailable. Run-level locking disabled.")
		} else {
			defer vk.Close()
			lockFunc = vk.AcquireLock
		}
	}

	dispatcher := webpush.NewDispatcher(
		cfg.Notifications.VapidSubject,
		cfg.Notifications.VapidPublicKey,
		cfg.Notifications.VapidPrivateKey,
	)
	client := linkedin.NewClient(cfg.LinkedIn.APIBaseURL, cfg.LinkedIn.PublishTimeout)
	formatter := publisher.NewArticleFormatter(cfg.LinkedIn.CommentaryMax)

	engine := publisher.NewEngine(contents, connections, targets, dispatcher, client, formatter, publisher.Options{
		AcquireLock: lockFunc,
		ClaimWindow: cfg.Publisher.ClaimWindow,
	})

	fiberConfig := fiber.Config{
		Network:      "tcp",
		AppName:      "Draftcast Publishing Engine",
		ServerHeader: "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.EnableTrustedProxyCheck = true
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedFor
	}
	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	api := app.Group(cfg.App.BasePath)

	if cfg.Publisher.CronSecret == "" {
		logrus.Warn("PUBLISH_CRON_SECRET is not set; the publish trigger endpoint will reject every call")
	}
	uiRest.InitRestPublishJob(api, engine, cfg.Publisher.CronSecret)
	uiRest.InitRestHealth(api)

	if len(cfg.App.BasicAuth) > 0 {
		account := make(map[string]string)
		for _, basicAuth := range cfg.App.BasicAuth {
			ba := strings.Split(basicAuth, ":")
			if len(ba) != 2 {
				logrus.Fatalln("Basic auth is not valid, please use the format <user>:<secret>")
			}
			account[ba[0]] = ba[1]
		}
		management := api.Group("", basicauth.New(basicauth.Config{Users: account}))
		uiRest.InitRestContent(management, contents)
		uiRest.InitRestConnection(management, connections)
		uiRest.InitRestNotification(management, targets)
	} else {
		logrus.Warn("APP_BASIC_AUTH is not set; management API disabled")
	}

	// Optional in-process trigger for deployments without an external cron.
	if cfg.Publisher.CronEnabled {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Publisher.CronSchedule, func() {
			summary, err := engine.RunOnce(context.Background(), time.Now().UTC())
			if err != nil {
				logrus.WithError(err).Error("[CRON] Publish run aborted")
				return
			}
			if summary.Processed > 0 || summary.Skipped {
				logrus.Infof("[CRON] Publish run: %d processed, %d published, %d failed",
					summary.Processed, summary.Published, summary.Failed)
			}
		})
		if err != nil {
			logrus.Fatalln("Invalid PUBLISH_CRON_SCHEDULE:", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logrus.Infof("[CRON] In-process trigger enabled (%s)", cfg.Publisher.CronSchedule)
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		logrus.Info("Shutting down...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Server stopped:", err)
	}
}
