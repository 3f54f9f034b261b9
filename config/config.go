package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// RealtimeConfig holds configuration for the realtime transcription service.
type RealtimeConfig struct {
	// Engine
	Backend     string `envDefault:"faster-whisper"          env:"ASR_BACKEND"          yaml:"backend"`
	Model       string `envDefault:"base"                    env:"WHISPER_MODEL"        yaml:"model"`
	Device      string `envDefault:"cpu"                     env:"WHISPER_DEVICE"       yaml:"device"`
	ComputeType string `envDefault:"int8"                    env:"WHISPER_COMPUTE_TYPE" yaml:"compute_type"`
	ModelDir    string `envDefault:"~/.cache/whisper-models" env:"WHISPER_MODEL_DIR"    yaml:"model_dir"`
	Python      string `envDefault:"python3"                 env:"WHISPER_PYTHON"       yaml:"python"`

	// whisper.cpp
	WhisperCPPBinary    string `envDefault:"whisper-cli" env:"WHISPER_CPP_BINARY"     yaml:"whisper_cpp_binary"`
	WhisperModelPath    string `envDefault:""            env:"WHISPER_MODEL_PATH"     yaml:"whisper_model_path"`
	WhisperVADModelPath string `envDefault:""            env:"WHISPER_VAD_MODEL_PATH" yaml:"whisper_vad_model_path"`

	// OpenAI-compatible remote API
	OpenAIAPIKey  string `envDefault:""                          env:"OPENAI_API_KEY"  yaml:"openai_api_key"`
	OpenAIBaseURL string `envDefault:"https://api.openai.com/v1" env:"OPENAI_BASE_URL" yaml:"openai_base_url"`
	OpenAIModel   string `envDefault:"whisper-1"                 env:"OPENAI_MODEL"    yaml:"openai_model"`

	// Session
	Language    string `envDefault:"pt" env:"DEFAULT_LANGUAGE" yaml:"language"`
	ContextSize int    `envDefault:"10" env:"CONTEXT_SIZE"     yaml:"context_size"`

	// Logging
	LogLevel   string `envDefault:"info"  env:"LOG_LEVEL"    yaml:"log_level"`
	LogNoColor bool   `envDefault:"false" env:"LOG_NO_COLOR" yaml:"log_no_color"`
}

// Load reads the configuration from the environment and, when path is not
// empty, overlays the keys present in the YAML file at path.
func Load(path string) (RealtimeConfig, error) {
	var cfg RealtimeConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *RealtimeConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Backend) == "" {
		errs = append(errs, errors.New("backend must not be empty"))
	}
	if strings.TrimSpace(c.Language) == "" {
		errs = append(errs, errors.New("language must not be empty"))
	}
	if c.ContextSize < 1 {
		errs = append(errs, fmt.Errorf("context size must be at least 1, got %d", c.ContextSize))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.OpenAIBaseURL != "" {
		if u, err := url.Parse(c.OpenAIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("openai base URL %q must be an absolute http(s) URL", c.OpenAIBaseURL))
		}
	}
	return errors.Join(errs...)
}

// EngineConfig returns the backend factory configuration. Backends read the
// keys they understand and ignore the rest.
func (c *RealtimeConfig) EngineConfig() map[string]string {
	return map[string]string{
		"python":         c.Python,
		"model":          c.Model,
		"device":         c.Device,
		"compute_type":   c.ComputeType,
		"model_dir":      c.ModelDir,
		"binary_path":    c.WhisperCPPBinary,
		"model_path":     c.WhisperModelPath,
		"vad_model_path": c.WhisperVADModelPath,
		"api_key":        c.OpenAIAPIKey,
		"base_url":       c.OpenAIBaseURL,
		"remote_model":   c.OpenAIModel,
	}
}

// ParseLogLevel maps debug, info, warn and error (case-insensitive) to a
// slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
