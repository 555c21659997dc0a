package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crmkit/wabridge/config"
)

var rootCmd = &cobra.Command{
	Use:   "wabridge",
	Short: "WhatsApp bridge for CRM inboxes",
	Long:  "Bridges WhatsApp business-number sessions into CRM conversations over HTTP.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			logrus.Debug("no .env file found, relying on process environment")
		}
		config.Load()

		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		if config.AppDebug {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.InfoLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorln(err)
		os.Exit(1)
	}
}
