// Package commands implements the CLI commands for countryleaders.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/countryleaders/internal/config"
	"github.com/jmylchreest/countryleaders/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "countryleaders",
	Short: "Scrape country leaders and their biographies",
	Long: `Countryleaders fetches historical leaders per country from the
country-leaders API and attaches the cleaned first paragraph of each
leader's Wikipedia article.

Examples:
  # Scrape every country, write leaders.json and leaders.csv
  countryleaders scrape

  # Two countries, sequential, into SQLite
  countryleaders scrape -c us -c fr --mode sequential -o leaders.db

  # Clean a paragraph from stdin
  echo "Jacques Chirac [ʒak ʃiʁak][1] est..." | countryleaders sanitize`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.countryleaders.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
	rootCmd.PersistentFlags().String("base-url", "", "country-leaders API base URL")
	rootCmd.PersistentFlags().Duration("api-timeout", 0, "API request timeout")
	rootCmd.PersistentFlags().String("user-agent", "", "User-Agent sent to the API and to Wikipedia")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("api_timeout", rootCmd.PersistentFlags().Lookup("api-timeout"))
	_ = viper.BindPFlag("user_agent", rootCmd.PersistentFlags().Lookup("user-agent"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".countryleaders")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("COUNTRYLEADERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the validated configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logError("%v", err)
		return nil, err
	}

	if err := logger.Init(logger.Options{
		Level: cfg.LogLevel,
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  cfg.LogJSON,
	}); err != nil {
		logger.Warn("logger setup", "error", err)
	}
	return cfg, nil
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
