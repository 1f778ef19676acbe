package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lmchat/internal/app"
	"lmchat/internal/config"
)

// rootOptions holds persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	modelURL   string
	modelPath  string
	modelsDir  string
	backends   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "lmchat",
		Short:         "Chat with a small language model running on this machine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("LMCHAT_CONFIG"), "Path to config file (.yaml|.yml|.json|.toml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	pf.StringVar(&opts.modelURL, "model-url", "", "Model download URL (overrides config)")
	pf.StringVar(&opts.modelPath, "model", "", "Local model path (overrides config)")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Directory holding *.gguf models (overrides config)")
	pf.StringVar(&opts.backends, "backends", "", "Comma-separated backend preference, e.g. gpu,cpu (overrides config)")

	root.AddCommand(newPullCmd(opts), newChatCmd(opts), newServeCmd(opts), newModelsCmd(opts))
	return root
}

// loadConfig merges the config file, flag overrides and defaults.
func (o *rootOptions) loadConfig() (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.modelURL != "" {
		cfg.ModelURL = o.modelURL
	}
	if o.modelPath != "" {
		cfg.ModelPath = o.modelPath
	}
	if o.modelsDir != "" {
		cfg.ModelsDir = o.modelsDir
	}
	if bs := splitCSV(o.backends); len(bs) > 0 {
		cfg.Backends = bs
	}
	return cfg.WithDefaults()
}

// openApp loads configuration and builds the app with a console logger.
func (o *rootOptions) openApp(stderr io.Writer) (*app.App, zerolog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := newLogger(stderr, cfg.LogLevel)
	a, err := app.New(cfg, app.Options{Logger: log})
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}

// newLogger writes human-readable logs to w, colored only on terminals.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
