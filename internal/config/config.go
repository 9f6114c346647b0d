package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the persisted application configuration.
type Config struct {
	NotesDir         string `yaml:"notes_dir"`
	AudioDir         string `yaml:"audio_dir"`
	TimeoutSec       int    `yaml:"timeout_seconds"`
	UserAgent        string `yaml:"user_agent"`
	Language         string `yaml:"language"`
	PreferredBackend string `yaml:"transcription_backend"`
	OpenAIModel      string `yaml:"openai_model"`
	WhisperModel     string `yaml:"whisper_model"`
	WhisperCppBinary string `yaml:"whisper_cpp_binary"`
	WhisperCppModel  string `yaml:"whisper_cpp_model"`
	ProcessLimit     int    `yaml:"process_limit"`
	PurgeMaxAgeHours int    `yaml:"purge_max_age_hours"`
}

// Secrets holds credentials read from the environment. They are never
// written to the configuration file.
type Secrets struct {
	OpenAIKey string `env:"OPENAI_API_KEY"`
}

// LoadSecrets reads credentials from the process environment.
func LoadSecrets(ctx context.Context) (Secrets, error) {
	var s Secrets
	if err := envconfig.Process(ctx, &s); err != nil {
		return Secrets{}, fmt.Errorf("read secrets from environment: %w", err)
	}
	return s, nil
}

// Defaults returns the baseline configuration used on first run.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		NotesDir:   filepath.Join(home, "Podcasts"),
		AudioDir:   filepath.Join(os.TempDir(), "podscribe"),
		TimeoutSec: 30,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Language:         "en",
		PreferredBackend: "openai",
		OpenAIModel:      "whisper-1",
		WhisperModel:     "base",
		WhisperCppBinary: "whisper-cpp",
		WhisperCppModel:  "models/ggml-base.bin",
		ProcessLimit:     3,
		PurgeMaxAgeHours: 24,
	}
}

// Timeout returns the per-call network timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// Ensure loads configuration from the provided path, prompting the user to
// create one if it does not yet exist.
func Ensure(ctx context.Context, path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg = Defaults()
	if err := bootstrap(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads configuration from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	defaults := Defaults()
	if strings.TrimSpace(cfg.NotesDir) == "" {
		cfg.NotesDir = defaults.NotesDir
	}
	if strings.TrimSpace(cfg.AudioDir) == "" {
		cfg.AudioDir = defaults.AudioDir
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = defaults.TimeoutSec
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = defaults.Language
	}
	if strings.TrimSpace(cfg.PreferredBackend) == "" {
		cfg.PreferredBackend = defaults.PreferredBackend
	}
	if strings.TrimSpace(cfg.OpenAIModel) == "" {
		cfg.OpenAIModel = defaults.OpenAIModel
	}
	if strings.TrimSpace(cfg.WhisperModel) == "" {
		cfg.WhisperModel = defaults.WhisperModel
	}
	if strings.TrimSpace(cfg.WhisperCppBinary) == "" {
		cfg.WhisperCppBinary = defaults.WhisperCppBinary
	}
	if cfg.ProcessLimit <= 0 {
		cfg.ProcessLimit = defaults.ProcessLimit
	}
	if cfg.PurgeMaxAgeHours <= 0 {
		cfg.PurgeMaxAgeHours = defaults.PurgeMaxAgeHours
	}
	return cfg, nil
}

// Save writes configuration back to disk, ensuring directory permissions are restrictive.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func bootstrap(ctx context.Context, cfg *Config) error {
	if fromEnv := strings.TrimSpace(os.Getenv("PODSCRIBE_NOTES_DIR")); fromEnv != "" {
		resolved, err := expandPath(fromEnv)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(resolved, 0o755); err != nil {
			return fmt.Errorf("create notes directory: %w", err)
		}
		cfg.NotesDir = resolved
		return nil
	}

	prompt := &survey.Input{
		Message: "Choose a directory for generated notes",
		Default: cfg.NotesDir,
	}

	var answer string
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return fmt.Errorf("initialisation interrupted")
		}
		return err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("notes directory cannot be empty")
	}

	resolved, err := expandPath(answer)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return fmt.Errorf("create notes directory: %w", err)
	}

	cfg.NotesDir = resolved
	return nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
