package cmd

import (
	"time"

	coreconfig "github.com/draftcast/draftcast/core/config"
	"github.com/draftcast/draftcast/pkg/crypto"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "draftcast",
	Short: "Draftcast scheduled content publishing service",
	Long: `Draftcast turns generated content drafts into scheduled LinkedIn posts.
The rest subcommand serves the management API and the publish trigger endpoint.`,
}

func init() {
	// Environment variables first; a local .env is optional.
	_ = godotenv.Load()

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(initEnvConfig)
}

// initEnvConfig loads the structured configuration and applies viper
// overrides for the handful of settings operators change most often.
func initEnvConfig() {
	viper.AutomaticEnv()

	if _, err := coreconfig.LoadConfig(); err != nil {
		logrus.Fatalln("Failed to load configuration:", err)
	}
	cfg := coreconfig.Global

	if envPort := viper.GetString("app_port"); envPort != "" {
		cfg.App.Port = envPort
	}
	if viper.IsSet("app_debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if envSecret := viper.GetString("publish_cron_secret"); envSecret != "" {
		cfg.Publisher.CronSecret = envSecret
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if cfg.Security.SecretKey == "" {
		logrus.Warn("APP_SECRET_KEY is not set; platform tokens will be stored unencrypted")
	}
	if err := crypto.SetEncryptionKey(cfg.Security.SecretKey); err != nil {
		logrus.Fatalln("Failed to initialize token encryption:", err)
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
