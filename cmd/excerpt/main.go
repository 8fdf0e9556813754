package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgPkg "github.com/xhad/excerpt/pkg/config"
	"github.com/xhad/excerpt/pkg/logger"
)

type options struct {
	configPath string
	envFile    string
	logLevel   string
	jsonLogs   bool
	strategy   string
	ollamaURL  string

	config *cfgPkg.Config
	log    logger.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "excerpt",
		Short:         "Reduce documents to the excerpts a field schema needs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.jsonLogs, "json-logs", false, "Write logs as JSON")
	flags.StringVar(&opts.strategy, "strategy", "", "Ranking strategy (local, embedding)")
	flags.StringVar(&opts.ollamaURL, "ollama-url", "", "Ollama server URL")

	root.AddCommand(
		keysCmd(),
		chunksCmd(opts),
		selectCmd(opts),
		extractCmd(opts),
	)
	return root
}

func (o *options) setup(cmd *cobra.Command) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
		}
	}

	config, err := cfgPkg.LoadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Command line flags take precedence over file and environment
	if o.logLevel != "" {
		config.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("json-logs") {
		config.Log.JSON = o.jsonLogs
	}
	if o.strategy != "" {
		config.Relevance.Strategy = o.strategy
	}
	if o.ollamaURL != "" {
		config.LLM.BaseURL = o.ollamaURL
		config.Embedder.BaseURL = o.ollamaURL
	}

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Yellow("config: %s", e.Error())
		}
		return fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}

	o.config = config
	o.log = logger.New(config.Log.LoggerConfig())
	logger.SetDefault(o.log)
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), o.log))
	return nil
}
