package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/jo-hoe/lovenotes/internal/backend/intake"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                     = 8080
	DefaultMusicURL                 = "https://cdn.pixabay.com/audio/2022/05/27/audio_306c1e2c2e.mp3"
	DefaultDatabaseType             = "sqlite"
	DefaultDatabaseConnectionString = "lovenotes.db"
	DefaultLogLevel                 = "info"
	DefaultLogFormat                = "text"
	DefaultImagesDir                = "public/images"
)

type Database struct {
	Type             string `yaml:"type" env:"LOVENOTES_DATABASE_TYPE"`
	ConnectionString string `yaml:"connectionString" env:"LOVENOTES_DATABASE_CONNECTION_STRING"`
}

type Intake struct {
	MaxFileSize   int64 `yaml:"maxFileSize"`
	MaxDimension  int   `yaml:"maxDimension"`
	Quality       int   `yaml:"quality"`
	ThumbnailSize int   `yaml:"thumbnailSize"`
}

type Logging struct {
	Level  string `yaml:"level" env:"LOVENOTES_LOG_LEVEL"`
	Format string `yaml:"format" env:"LOVENOTES_LOG_FORMAT"`
}

// Reconciler toggles behaviour of the collection merge
type Reconciler struct {
	// StrictDelete surfaces ErrNotFound when deleting a user photo that does not exist
	StrictDelete bool `yaml:"strictDelete"`
	// LegacyEmptyFallback shows the bundled photos whenever the merged collection is empty,
	// even after the user deleted everything
	LegacyEmptyFallback bool `yaml:"legacyEmptyFallback"`
}

type ServiceConfig struct {
	Port       int        `yaml:"port" env:"LOVENOTES_PORT"`
	MusicURL   string     `yaml:"musicUrl" env:"LOVENOTES_BGM_URL"`
	ImagesDir  string     `yaml:"imagesDir" env:"LOVENOTES_IMAGES_DIR"`
	Database   Database   `yaml:"database"`
	Intake     Intake     `yaml:"intake"`
	Logging    Logging    `yaml:"logging"`
	Reconciler Reconciler `yaml:"reconciler"`
}

// LoadConfig loads configuration from the specified YAML file and
// overlays LOVENOTES_* environment variables, including those from a local .env file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// ApplyDefaults fills every unset field
func (c *ServiceConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MusicURL == "" {
		c.MusicURL = DefaultMusicURL
	}
	if c.ImagesDir == "" {
		c.ImagesDir = DefaultImagesDir
	}
	if c.Database.Type == "" {
		c.Database.Type = DefaultDatabaseType
	}
	if c.Database.ConnectionString == "" && c.Database.Type == DefaultDatabaseType {
		c.Database.ConnectionString = DefaultDatabaseConnectionString
	}
	if c.Intake.MaxFileSize == 0 {
		c.Intake.MaxFileSize = intake.DefaultMaxFileSize
	}
	if c.Intake.MaxDimension == 0 {
		c.Intake.MaxDimension = intake.DefaultMaxDimension
	}
	if c.Intake.Quality == 0 {
		c.Intake.Quality = intake.DefaultQuality
	}
	if c.Intake.ThumbnailSize == 0 {
		c.Intake.ThumbnailSize = intake.DefaultThumbnailSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func (c *ServiceConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	switch c.Database.Type {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.ConnectionString == "" {
		return fmt.Errorf("database connection string must be set for %s", c.Database.Type)
	}
	if c.Intake.MaxFileSize < 0 || c.Intake.MaxDimension < 0 || c.Intake.ThumbnailSize < 0 {
		return fmt.Errorf("intake limits must be positive")
	}
	if c.Intake.Quality < 0 || c.Intake.Quality > 100 {
		return fmt.Errorf("intake quality %d must be between 1 and 100", c.Intake.Quality)
	}
	if _, ok := logLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}
	return nil
}

func (c *ServiceConfig) IntakeOptions() intake.Options {
	return intake.Options{
		MaxFileSize:   c.Intake.MaxFileSize,
		MaxDimension:  c.Intake.MaxDimension,
		Quality:       c.Intake.Quality,
		ThumbnailSize: c.Intake.ThumbnailSize,
	}
}
