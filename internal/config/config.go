// Package config loads the CLI configuration from an optional YAML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	interview "github.com/koscakluka/ema-interview/core"
	"github.com/koscakluka/ema-interview/core/remote"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "ema-interview.yaml"
	DefaultEnvFile = ".env"
	DefaultBaseURL = "http://localhost:8080"

	EnvAPIURL      = "EMA_INTERVIEW_API_URL"
	EnvToken       = "EMA_INTERVIEW_TOKEN"
	EnvDeepgramKey = "DEEPGRAM_API_KEY"
)

type Backend string

const (
	BackendMiniaudio Backend = "miniaudio"
	BackendPortaudio Backend = "portaudio"
	BackendNone      Backend = "none"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Speech  SpeechConfig  `yaml:"speech"`
	Audio   AudioConfig   `yaml:"audio"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Duration      time.Duration `yaml:"duration"`
	RestartDelay  time.Duration `yaml:"restart_delay"`
	QuestionDelay time.Duration `yaml:"question_delay"`
	// MaxRestarts bounds consecutive recognition restarts without results.
	// Zero disables the bound.
	MaxRestarts int `yaml:"max_restarts"`
	// FetchAttempts bounds how often a failed question fetch is tried.
	FetchAttempts   int           `yaml:"fetch_attempts"`
	FetchRetryDelay time.Duration `yaml:"fetch_retry_delay"`
}

type SpeechConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Voice          string `yaml:"voice"`
	Language       string `yaml:"language"`
	DeepgramAPIKey string `yaml:"deepgram_api_key"`
}

type AudioConfig struct {
	Backend Backend `yaml:"backend"`
}

func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: remote.DefaultTimeout,
		},
		Session: SessionConfig{
			Duration:        interview.DefaultSessionDuration,
			RestartDelay:    interview.DefaultRestartDelay,
			QuestionDelay:   interview.DefaultQuestionDelay,
			MaxRestarts:     10,
			FetchAttempts:   interview.DefaultFetchAttempts,
			FetchRetryDelay: interview.DefaultFetchRetryDelay,
		},
		Speech: SpeechConfig{
			Enabled:  true,
			Voice:    "aura-2-thalia-en",
			Language: "en-US",
		},
		Audio: AudioConfig{Backend: BackendMiniaudio},
	}
}

// Load builds the configuration. An empty path falls back to
// [DefaultPath] when that file exists. Env files default to
// [DefaultEnvFile]; missing env files are skipped.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if value, ok := lookupEnv(EnvAPIURL); ok {
		c.API.BaseURL = value
	}
	if value, ok := lookupEnv(EnvToken); ok {
		c.API.Token = value
	}
	if value, ok := lookupEnv(EnvDeepgramKey); ok {
		c.Speech.DeepgramAPIKey = value
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (c *Config) Validate() error {
	var errs error
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = errors.Join(errs, errors.New("api.base_url must be set"))
	}
	if c.API.Timeout <= 0 {
		errs = errors.Join(errs, errors.New("api.timeout must be positive"))
	}
	if c.Session.Duration < time.Second {
		errs = errors.Join(errs, errors.New("session.duration must be at least one second"))
	}
	if c.Session.RestartDelay < 0 || c.Session.QuestionDelay < 0 || c.Session.FetchRetryDelay < 0 {
		errs = errors.Join(errs, errors.New("session delays must not be negative"))
	}
	if c.Session.MaxRestarts < 0 {
		errs = errors.Join(errs, errors.New("session.max_restarts must not be negative"))
	}
	if c.Session.FetchAttempts < 1 {
		errs = errors.Join(errs, errors.New("session.fetch_attempts must be at least one"))
	}
	switch c.Audio.Backend {
	case BackendMiniaudio, BackendPortaudio, BackendNone:
	default:
		errs = errors.Join(errs, fmt.Errorf("audio.backend %q is not one of miniaudio, portaudio, none", c.Audio.Backend))
	}
	if errs != nil {
		return fmt.Errorf("invalid config: %w", errs)
	}
	return nil
}

// Write stores cfg as YAML at path.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
