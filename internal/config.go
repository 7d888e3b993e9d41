package internal

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/apperr"
	"github.com/rajatgoel03/courses-guide-chatbot/pkg/config"
)

// Source modes.
const (
	SourceModeDrive = "drive"
	SourceModeLocal = "local"
)

// Duration is a time.Duration that unmarshals from YAML strings like "10m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Source    SourceConfig      `yaml:"source"`
	Knowledge KnowledgeConfig   `yaml:"knowledge"`
	Model     ModelConfig       `yaml:"model"`
	History   HistoryConfig     `yaml:"history"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Knowledge.Validate(); err != nil {
		return err
	}
	return c.Model.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SourceConfig selects where course documents come from.
//
// Mode controls the document source:
//   - "drive" (default): a Google Drive folder read with a service account.
//   - "local": a directory on disk, intended for development.
type SourceConfig struct {
	Mode  string      `yaml:"mode"`
	Drive DriveConfig `yaml:"drive"`
	Local LocalConfig `yaml:"local"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	// Normalise empty mode to "drive", the production default.
	if c.Mode == "" {
		c.Mode = SourceModeDrive
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(SourceModeDrive, SourceModeLocal)),
	); err != nil {
		return err
	}
	switch c.Mode {
	case SourceModeDrive:
		return c.Drive.Validate()
	case SourceModeLocal:
		return c.Local.Validate()
	}
	return nil
}

// DriveConfig holds Google Drive source configuration. When neither
// credentials field is set the client falls back to application default
// credentials.
type DriveConfig struct {
	FolderID        string `yaml:"folder_id"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
}

// Validate validates the Drive configuration.
func (c *DriveConfig) Validate() error {
	if c.FolderID == "" {
		return fmt.Errorf("drive: folder_id is empty (set DRIVE_FOLDER_ID)")
	}
	if c.CredentialsFile != "" && c.CredentialsJSON != "" {
		return fmt.Errorf("drive: credentials_file and credentials_json are mutually exclusive")
	}
	return nil
}

// LocalConfig holds local directory source configuration.
type LocalConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the local source configuration.
func (c *LocalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// KnowledgeConfig holds knowledge cache configuration.
type KnowledgeConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// Validate validates the knowledge configuration.
func (c *KnowledgeConfig) Validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("knowledge: refresh_interval must be positive")
	}
	return nil
}

// ModelConfig holds the Gemini API client configuration.
type ModelConfig struct {
	APIKey  string   `yaml:"api_key"`
	Name    string   `yaml:"name"`
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// Validate validates the model configuration.
func (c *ModelConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.BaseURL, validation.Required),
	); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("model: api_key is empty (set GEMINI_API_KEY)")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("model: timeout must be positive")
	}
	return nil
}

// HistoryConfig holds the question/answer log configuration. An empty
// path disables the exchange log.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Source: SourceConfig{
			Mode: SourceModeDrive,
			Local: LocalConfig{
				Path:  "./docs",
				Watch: true,
			},
		},
		Knowledge: KnowledgeConfig{
			RefreshInterval: Duration(10 * time.Minute),
		},
		Model: ModelConfig{
			Name:    "gemini-1.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com",
			Timeout: Duration(60 * time.Second),
		},
		History: HistoryConfig{
			Path: "./history.db",
		},
	}
}

// LoadConfig builds the effective configuration: compiled-in defaults,
// seeded from the environment, overlaid by the YAML file at path when it
// exists. The result is validated so a bad configuration is reported
// before any component starts.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	cfg.applyEnv()
	if _, err := config.LoadIfPresent(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	return cfg, nil
}

// applyEnv seeds fields from the environment variables the deployment
// surface documents, so the server can run with no config file at all.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("DRIVE_FOLDER_ID"); v != "" {
		c.Source.Drive.FolderID = v
	}
	if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"); v != "" {
		c.Source.Drive.CredentialsJSON = v
	}
}
