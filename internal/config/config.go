package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Engine kinds.
const (
	EngineWebview  = "webview"
	EngineDeepgram = "deepgram"
	EngineTyped    = "typed"
)

// Synthesis backends.
const (
	SynthWebview = "webview"
	SynthEspeak  = "espeak"
	SynthNone    = "none"
)

// Config stores runtime configuration.
type Config struct {
	Engine     EngineConfig     `mapstructure:"engine"`
	Deepgram   DeepgramConfig   `mapstructure:"deepgram"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Session    SessionConfig    `mapstructure:"session"`
	Synthesis  SynthesisConfig  `mapstructure:"synthesis"`
	HealthData HealthDataConfig `mapstructure:"healthdata"`
	Normalize  NormalizeConfig  `mapstructure:"normalize"`
	Log        LogConfig        `mapstructure:"log"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type EngineConfig struct {
	Kind string `mapstructure:"kind"`
}

type DeepgramConfig struct {
	APIKey        string `mapstructure:"api_key"`
	APIBaseURL    string `mapstructure:"api_base_url"`
	Model         string `mapstructure:"model"`
	Language      string `mapstructure:"language"`
	SmartFormat   bool   `mapstructure:"smart_format"`
	EndpointingMS int    `mapstructure:"endpointing_ms"`
	SOCKSProxy    string `mapstructure:"socks_proxy"`
}

type AudioConfig struct {
	RecorderCommand string        `mapstructure:"recorder_command"`
	InputFormat     string        `mapstructure:"input_format"`
	InputDevice     string        `mapstructure:"input_device"`
	SampleRate      int           `mapstructure:"sample_rate"`
	Channels        int           `mapstructure:"channels"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	DrainTimeout    time.Duration `mapstructure:"drain_timeout"`
}

type SessionConfig struct {
	RestartDelay     time.Duration `mapstructure:"restart_delay"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	WelcomeDelay     time.Duration `mapstructure:"welcome_delay"`
	WelcomeMessage   string        `mapstructure:"welcome_message"`
	StopAfterCommand bool          `mapstructure:"stop_after_command"`
	PopupTimeout     time.Duration `mapstructure:"popup_timeout"`
}

type SynthesisConfig struct {
	Engine  string  `mapstructure:"engine"`
	Command string  `mapstructure:"command"`
	Rate    float64 `mapstructure:"rate"`
	Pitch   float64 `mapstructure:"pitch"`
	Volume  float64 `mapstructure:"volume"`
	Voice   string  `mapstructure:"voice"`
}

type HealthDataConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type NormalizeConfig struct {
	Path      string   `mapstructure:"path"`
	Rules     []string `mapstructure:"rules"`
	MaxPasses int      `mapstructure:"max_passes"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.kind", EngineWebview)

	v.SetDefault("deepgram.api_key", "")
	v.SetDefault("deepgram.api_base_url", "https://api.deepgram.com/v1")
	v.SetDefault("deepgram.model", "nova-2")
	v.SetDefault("deepgram.language", "en-US")
	v.SetDefault("deepgram.smart_format", true)
	v.SetDefault("deepgram.endpointing_ms", 300)
	v.SetDefault("deepgram.socks_proxy", "")

	v.SetDefault("audio.recorder_command", "ffmpeg")
	v.SetDefault("audio.input_format", "pulse")
	v.SetDefault("audio.input_device", "default")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.chunk_size", 4096)
	v.SetDefault("audio.drain_timeout", "5s")

	v.SetDefault("session.restart_delay", "500ms")
	v.SetDefault("session.retry_delay", "1500ms")
	v.SetDefault("session.welcome_delay", "500ms")
	v.SetDefault("session.welcome_message", "Hello, welcome to VoiceWell voice navigation")
	v.SetDefault("session.stop_after_command", false)
	v.SetDefault("session.popup_timeout", "5s")

	v.SetDefault("synthesis.engine", SynthWebview)
	v.SetDefault("synthesis.command", "espeak-ng")
	v.SetDefault("synthesis.rate", 0.9)
	v.SetDefault("synthesis.pitch", 1.0)
	v.SetDefault("synthesis.volume", 0.8)
	v.SetDefault("synthesis.voice", "")

	v.SetDefault("healthdata.path", "")
	v.SetDefault("healthdata.watch", true)

	v.SetDefault("normalize.path", "")
	v.SetDefault("normalize.rules", []string{})
	v.SetDefault("normalize.max_passes", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load resolves configuration from defaults, an optional YAML file and
// VOICEWELL_* environment variables. An explicit path must exist; the
// default location is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("VOICEWELL_CONFIG"))
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "voicewell"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("VOICEWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("deepgram.api_key", "VOICEWELL_DEEPGRAM_API_KEY", "DEEPGRAM_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind deepgram key: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.clamp()
	return cfg, nil
}

// clamp replaces out-of-range values with defaults.
func (c *Config) clamp() {
	c.Engine.Kind = strings.ToLower(strings.TrimSpace(c.Engine.Kind))
	switch c.Engine.Kind {
	case EngineWebview, EngineDeepgram, EngineTyped:
	default:
		c.Engine.Kind = EngineWebview
	}
	c.Synthesis.Engine = strings.ToLower(strings.TrimSpace(c.Synthesis.Engine))
	switch c.Synthesis.Engine {
	case SynthWebview, SynthEspeak, SynthNone:
	default:
		c.Synthesis.Engine = SynthWebview
	}

	c.Deepgram.APIKey = strings.TrimSpace(c.Deepgram.APIKey)
	if c.Deepgram.EndpointingMS < 0 {
		c.Deepgram.EndpointingMS = 0
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.ChunkSize < 256 {
		c.Audio.ChunkSize = 4096
	}
	if c.Audio.DrainTimeout <= 0 {
		c.Audio.DrainTimeout = 5 * time.Second
	}

	if c.Session.RestartDelay <= 0 {
		c.Session.RestartDelay = 500 * time.Millisecond
	}
	if c.Session.RetryDelay <= 0 {
		c.Session.RetryDelay = 1500 * time.Millisecond
	}
	if c.Session.WelcomeDelay <= 0 {
		c.Session.WelcomeDelay = 500 * time.Millisecond
	}
	if c.Session.PopupTimeout <= 0 {
		c.Session.PopupTimeout = 5 * time.Second
	}

	c.Synthesis.Rate = clampFloat(c.Synthesis.Rate, 0.1, 10, 0.9)
	c.Synthesis.Pitch = clampFloat(c.Synthesis.Pitch, 0, 2, 1.0)
	c.Synthesis.Volume = clampFloat(c.Synthesis.Volume, 0, 1, 0.8)

	if c.Normalize.MaxPasses <= 0 {
		c.Normalize.MaxPasses = 30
	}
}

func clampFloat(v, lo, hi, fallback float64) float64 {
	if v < lo || v > hi {
		return fallback
	}
	return v
}
