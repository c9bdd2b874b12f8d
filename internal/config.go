package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Site      SiteConfig        `yaml:"site"`
	Audio     AudioConfig       `yaml:"audio"`
	Narration NarrationConfig   `yaml:"narration"`
	Tags      TagsConfig        `yaml:"tags"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Audio.Validate(); err != nil {
		return err
	}
	if err := c.Narration.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// SiteConfig locates the blog checkout. PostsDir and PostsGlob are relative
// to Root.
type SiteConfig struct {
	Root      string `yaml:"root"`
	PostsDir  string `yaml:"posts_dir"`
	PostsGlob string `yaml:"posts_glob"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.PostsDir, validation.Required),
		validation.Field(&c.PostsGlob, validation.Required),
	)
}

// AudioConfig controls where narrations are written and how they are linked.
type AudioConfig struct {
	Dir         string `yaml:"dir"`
	URLPrefix   string `yaml:"url_prefix"`
	BitrateKbps int    `yaml:"bitrate_kbps"`
	SampleRate  int    `yaml:"sample_rate"`
}

// Validate validates the audio configuration.
func (c *AudioConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.URLPrefix, validation.Required),
		validation.Field(&c.BitrateKbps, validation.Required, validation.Min(8), validation.Max(320)),
		validation.Field(&c.SampleRate, validation.Required, validation.Min(8000)),
	)
}

// NarrationConfig holds synthesis settings.
type NarrationConfig struct {
	Voice        string   `yaml:"voice"`
	Speed        float64  `yaml:"speed"`
	MinWords     int      `yaml:"min_words"`
	Model        string   `yaml:"model"`
	LangCode     string   `yaml:"lang_code"`
	SynthCommand []string `yaml:"synth_command"`
	FFmpegPath   string   `yaml:"ffmpeg_path"`
}

// Validate validates the narration configuration.
func (c *NarrationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Voice, validation.Required),
		validation.Field(&c.Speed, validation.Required, validation.Min(0.25), validation.Max(4.0)),
		validation.Field(&c.MinWords, validation.Min(0)),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.SynthCommand, validation.Required),
		validation.Field(&c.FFmpegPath, validation.Required),
	)
}

// TagsConfig holds the fixed ID3 fields stamped on every episode.
type TagsConfig struct {
	Author string `yaml:"author"`
	Album  string `yaml:"album"`
	Genre  string `yaml:"genre"`
}

// CatalogConfig holds the narration ledger location. An empty path disables
// the ledger.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration for the serve command.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with the defaults of the blog the
// tool was written for.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8085,
			},
		},
		Site: SiteConfig{
			Root:      ".",
			PostsDir:  "_posts",
			PostsGlob: "**/*.md",
		},
		Audio: AudioConfig{
			Dir:         "assets/audio",
			URLPrefix:   "assets/audio",
			BitrateKbps: 64,
			SampleRate:  24000,
		},
		Narration: NarrationConfig{
			Voice:        "af_heart",
			Speed:        1.0,
			MinWords:     300,
			Model:        "mlx-community/Kokoro-82M-bf16",
			LangCode:     "a",
			SynthCommand: []string{"python3", "-m", "mlx_audio.tts.generate"},
			FFmpegPath:   "ffmpeg",
		},
		Tags: TagsConfig{
			Author: "Gal Sapir",
			Album:  "Sparse Thoughts",
			Genre:  "Podcast",
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(xdg.DataHome, "narrate", "catalog.db"),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
