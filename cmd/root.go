package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	log      = logrus.New()
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "validator-exit",
	Short: "Operates voluntary exits for beacon chain validators.",
	Long:  `Operates voluntary exits for beacon chain validators.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func initCommon() {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.WithError(err).Warnf("Unknown log level %q, using info", logLevel)

		lvl = logrus.InfoLevel
	}

	log.SetLevel(lvl)
}
