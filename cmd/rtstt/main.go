package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicetyped/rtstt/config"
	"github.com/voicetyped/rtstt/internal/logging"

	// Register ASR backends via init().
	_ "github.com/voicetyped/rtstt/internal/speech/backends/fasterwhisper"
	_ "github.com/voicetyped/rtstt/internal/speech/backends/openai"
	_ "github.com/voicetyped/rtstt/internal/speech/backends/whispercpp"
)

var rootCmd = &cobra.Command{
	Use:   "rtstt",
	Short: "Realtime speech-to-text over a line-delimited JSON protocol",
	Long: `rtstt loads a speech recognition engine once and then reads one JSON
command per line on stdin, answering each with one JSON line on stdout.
Diagnostics go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the realtime command loop on stdin/stdout (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	registerFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(backendsCmd)
}

func registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "YAML config file overriding environment settings")
	flags.String("backend", "", "ASR backend (faster-whisper, whisper-cpp, openai)")
	flags.String("model", "", "Model name or path")
	flags.String("device", "", "Inference device (cpu, cuda, auto)")
	flags.String("compute-type", "", "Compute type (int8, float16, ...)")
	flags.String("language", "", "Initial language code")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig resolves the configuration: flags over the YAML file over the
// environment over defaults.
func loadConfig(cmd *cobra.Command) (config.RealtimeConfig, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"backend", &cfg.Backend},
		{"model", &cfg.Model},
		{"device", &cfg.Device},
		{"compute-type", &cfg.ComputeType},
		{"language", &cfg.Language},
		{"log-level", &cfg.LogLevel},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst, _ = flags.GetString(o.flag)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.RealtimeConfig) *slog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := logging.New(os.Stderr, logging.Options{Level: level, NoColor: cfg.LogNoColor})
	slog.SetDefault(logger)
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rtstt: %v\n", err)
		os.Exit(1)
	}
}
