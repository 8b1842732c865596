package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logsift/logsift/internal/config"
	"github.com/logsift/logsift/internal/logging"
)

const Version = "0.1.0"

var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "Logsift - log template classification",
	Long: `Logsift classifies unstructured log lines against a catalog of learned
regex templates. A catalog of thousands of templates is reduced to one
multi-pattern fragment scan plus a handful of regex probes per line.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file with matcher settings")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(templatesCmd)
}

// loadMatcherConfig resolves the engine configuration: the --config file
// when given, defaults otherwise.
func loadMatcherConfig() (config.MatcherConfig, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFile(configPath)
}

// HandleError prints error and exits
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
