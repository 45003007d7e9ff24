package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/m2tx/toolchat/internal/config"
)

// options holds command-line flags that override the loaded configuration.
type options struct {
	ConfigPath string
	Endpoint   string
	Model      string
	Port       int
	StaticDir  string
	DocsDir    string
	Markdown   bool
	NoWeb      bool
	Debug      bool
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "toolchat",
		Short:         "Chat with a local model that can call tools, from the console or over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), cfg, !opts.NoWeb)
		},
	}

	applyFlags(rootCmd.PersistentFlags(), opts)

	rootCmd.AddCommand(serveCommand(opts))
	rootCmd.AddCommand(toolsCommand(opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func applyFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.ConfigPath, "config", "", "Path to a TOML config file (default ./"+config.DefaultFile+" when present)")
	flags.StringVar(&opts.Endpoint, "endpoint", "", "Chat completions endpoint URL")
	flags.StringVar(&opts.Model, "model", "", "Model identifier sent with every request")
	flags.IntVar(&opts.Port, "port", 0, "HTTP port for the web interface")
	flags.StringVar(&opts.StaticDir, "static-dir", "", "Directory served by the web interface")
	flags.StringVar(&opts.DocsDir, "docs-dir", "", "Directory indexed by the search_docs tool")
	flags.BoolVar(&opts.Markdown, "markdown", false, "Render final answers as terminal markdown")
	flags.BoolVar(&opts.NoWeb, "no-web", false, "Do not start the web interface")
	flags.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
}

// applyOverrides copies the flags the user actually set onto cfg.
func applyOverrides(flags *pflag.FlagSet, opts *options, cfg *config.Config) {
	if flags.Changed("endpoint") {
		cfg.LLM.Endpoint = opts.Endpoint
	}
	if flags.Changed("model") {
		cfg.LLM.Model = opts.Model
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.Port
	}
	if flags.Changed("static-dir") {
		cfg.Server.StaticDir = opts.StaticDir
	}
	if flags.Changed("docs-dir") {
		cfg.Tools.DocsDir = opts.DocsDir
	}
	if flags.Changed("markdown") {
		cfg.Markdown = opts.Markdown
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.Debug
	}
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(cmd.Flags(), opts, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run only the HTTP interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func toolsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runTools(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}
