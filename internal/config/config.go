package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pr-reminder/internal/reminder"
)

// DefaultPath is the config file read when PR_REMINDER_CONFIG is unset.
const DefaultPath = "config.yaml"

// Config represents the application configuration
type Config struct {
	GitHub    GitHub    `yaml:"github"`
	Reminder  Reminder  `yaml:"reminder"`
	Notifiers Notifiers `yaml:"notifiers"`
	Log       Log       `yaml:"log"`
	Schedule  Schedule  `yaml:"schedule"`
}

// GitHub configures the pull request source.
type GitHub struct {
	APIURL         string       `yaml:"api_url" env:"GITHUB_API_URL" env-default:"https://api.github.com"`
	Token          string       `yaml:"token" env:"GITHUB_TOKEN"`
	TimeoutSeconds int          `yaml:"timeout_seconds" env:"GITHUB_TIMEOUT_SECONDS" env-default:"15"`
	RetryAttempts  int          `yaml:"retry_attempts" env:"GITHUB_RETRY_ATTEMPTS" env-default:"3"`
	Repositories   []Repository `yaml:"repositories"`
}

// Repository is one tracked repository, "owner/name", with the title used in messages.
type Repository struct {
	Slug  string `yaml:"slug"`
	Title string `yaml:"title"`
}

// Owner returns the part of the slug before the slash.
func (r Repository) Owner() string {
	owner, _, _ := strings.Cut(r.Slug, "/")
	return owner
}

// Name returns the part of the slug after the slash.
func (r Repository) Name() string {
	_, name, _ := strings.Cut(r.Slug, "/")
	return name
}

// DisplayTitle returns Title, falling back to the repository name.
func (r Repository) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name()
}

// Reminder configures selection and rendering.
type Reminder struct {
	FreezeDate     string            `yaml:"freeze_date" env:"FREEZE_DATE"`
	MaxChunkChars  int               `yaml:"max_chunk_chars" env:"MAX_CHUNK_CHARS" env-default:"1800"`
	MentionStyle   string            `yaml:"mention_style" env:"MENTION_STYLE" env-default:"discord"`
	Broadcast      string            `yaml:"broadcast" env:"BROADCAST_MENTION" env-default:"@everyone"`
	Mentions       map[string]string `yaml:"mentions"`
	Markers        map[int]string    `yaml:"markers"`
	FallbackMarker string            `yaml:"fallback_marker"`
	ExcludeLabels  []string          `yaml:"exclude_labels"`
	IgnoreKeywords []string          `yaml:"ignore_keywords"`
}

// Notifiers configures the delivery sinks. A sink without a destination is disabled.
type Notifiers struct {
	Discord Discord `yaml:"discord"`
	Teams   Teams   `yaml:"teams"`
	SMTP    SMTP    `yaml:"smtp"`
}

type Discord struct {
	WebhookURL string `yaml:"webhook_url" env:"WEBHOOK_URL"`
	Format     string `yaml:"format" env:"WEBHOOK_FORMAT" env-default:"content"`
}

type Teams struct {
	WebhookURL string `yaml:"webhook_url" env:"TEAMS_WEBHOOK_URL"`
}

type SMTP struct {
	Host     string   `yaml:"host" env:"SMTP_HOST"`
	Port     int      `yaml:"port" env:"SMTP_PORT"`
	User     string   `yaml:"user" env:"SMTP_USER"`
	Password string   `yaml:"password" env:"SMTP_PASSWORD"`
	From     string   `yaml:"from" env:"SMTP_FROM"`
	To       []string `yaml:"to"`
	Subject  string   `yaml:"subject" env-default:"Pull request reminder"`
}

type Log struct {
	File       string `yaml:"file" env:"LOG_FILE"`
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format     string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"30"`
	Compress   bool   `yaml:"compress"`
	Stdout     bool   `yaml:"stdout" env:"LOG_STDOUT"`
}

// Schedule controls repeated runs; IntervalHours 0 runs once and exits.
type Schedule struct {
	IntervalHours int `yaml:"interval_hours" env:"INTERVAL_HOURS"`
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv("PR_REMINDER_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML file at path, loads .env when present and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Could not load .env file", "error", err)
	}

	return Parse(data)
}

// Parse decodes YAML config data and applies environment overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", errors.Join(reminder.ErrConfigurationInvalid, err))
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", errors.Join(reminder.ErrConfigurationInvalid, err))
	}

	cfg.trimSecrets()
	return &cfg, nil
}

// trimSecrets strips whitespace pasted around credentials.
func (c *Config) trimSecrets() {
	originalToken := c.GitHub.Token
	c.GitHub.Token = strings.TrimSpace(c.GitHub.Token)
	if c.GitHub.Token != originalToken {
		slog.Debug("Trimmed spaces from GitHub token in config.")
	}
	c.Notifiers.Discord.WebhookURL = strings.TrimSpace(c.Notifiers.Discord.WebhookURL)
	c.Notifiers.Teams.WebhookURL = strings.TrimSpace(c.Notifiers.Teams.WebhookURL)
	c.Notifiers.SMTP.Password = strings.TrimSpace(c.Notifiers.SMTP.Password)
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	if len(c.GitHub.Repositories) == 0 {
		return fmt.Errorf("github.repositories is empty: %w", reminder.ErrConfigurationInvalid)
	}
	for _, r := range c.GitHub.Repositories {
		if r.Owner() == "" || r.Name() == "" || strings.Count(r.Slug, "/") != 1 {
			return fmt.Errorf("repository %q is not owner/name: %w", r.Slug, reminder.ErrConfigurationInvalid)
		}
	}
	switch reminder.MentionStyle(c.Reminder.MentionStyle) {
	case reminder.MentionDiscord, reminder.MentionPlain:
	default:
		return fmt.Errorf("unknown mention_style %q: %w", c.Reminder.MentionStyle, reminder.ErrConfigurationInvalid)
	}
	switch c.Notifiers.Discord.Format {
	case "content", "embeds":
	default:
		return fmt.Errorf("unknown discord format %q: %w", c.Notifiers.Discord.Format, reminder.ErrConfigurationInvalid)
	}
	return nil
}

// ComposerConfig builds the composer settings from the reminder section.
func (c *Config) ComposerConfig() reminder.ComposerConfig {
	return reminder.ComposerConfig{
		Mentions:       c.Reminder.Mentions,
		Markers:        c.Reminder.Markers,
		FallbackMarker: c.Reminder.FallbackMarker,
		Budget:         c.Reminder.MaxChunkChars,
		Style:          reminder.MentionStyle(c.Reminder.MentionStyle),
		Broadcast:      c.Reminder.Broadcast,
	}
}
