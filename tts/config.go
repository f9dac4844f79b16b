package tts

import (
	"fmt"
	"strings"
	"time"
)

// Config contains all speech configuration options.
type Config struct {
	Engine string `yaml:"engine"`

	// Voice parameters for new requests
	Rate   float64 `yaml:"rate"`
	Pitch  float64 `yaml:"pitch"`
	Volume float64 `yaml:"volume"`
	Voice  string  `yaml:"voice"`

	// Pause between cancelling the engine and submitting a request
	SubmitDelay time.Duration `yaml:"submit_delay"`

	// Engine-specific configurations
	Espeak EspeakConfig `yaml:"espeak"`
	Mock   MockConfig   `yaml:"mock"`
	Cache  CacheConfig  `yaml:"cache"`
}

// EspeakConfig contains espeak-ng engine settings.
type EspeakConfig struct {
	Binary         string        `yaml:"binary"`
	VoiceScan      time.Duration `yaml:"voice_scan"`
	SpawnRate      float64       `yaml:"spawn_rate"`
	SpawnBurst     int           `yaml:"spawn_burst"`
	SynthesisLimit time.Duration `yaml:"synthesis_limit"`
}

// MockConfig contains mock engine settings for demos.
type MockConfig struct {
	StartDelay     time.Duration `yaml:"start_delay"`
	WordsPerMinute int           `yaml:"words_per_minute"`
}

// CacheConfig contains synthesized audio cache settings.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Dir          string        `yaml:"dir"`
	MemoryMB     int           `yaml:"memory_mb"`
	DiskMB       int           `yaml:"disk_mb"`
	MaxAge       time.Duration `yaml:"max_age"`
	CleanupEvery time.Duration `yaml:"cleanup_every"`
}

// Engine names accepted in configuration.
const (
	EngineEspeak = "espeak"
	EngineMock   = "mock"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:      EngineEspeak,
		Rate:        1.0,
		Pitch:       1.0,
		Volume:      1.0,
		SubmitDelay: DefaultSubmitDelay,
		Espeak:      DefaultEspeakConfig(),
		Mock:        DefaultMockConfig(),
		Cache:       DefaultCacheConfig(),
	}
}

// DefaultEspeakConfig returns default espeak-ng configuration.
func DefaultEspeakConfig() EspeakConfig {
	return EspeakConfig{
		Binary:         "espeak-ng",
		VoiceScan:      30 * time.Second,
		SpawnRate:      4,
		SpawnBurst:     2,
		SynthesisLimit: 30 * time.Second,
	}
}

// DefaultMockConfig returns default mock engine configuration.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		StartDelay:     50 * time.Millisecond,
		WordsPerMinute: 150,
	}
}

// DefaultCacheConfig returns default cache configuration. An empty Dir
// means the platform cache directory.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      true,
		MemoryMB:     32,
		DiskMB:       256,
		MaxAge:       7 * 24 * time.Hour,
		CleanupEvery: time.Hour,
	}
}

// Playback returns the initial playback configuration.
func (c *Config) Playback() PlaybackConfig {
	return PlaybackConfig{
		Rate:   c.Rate,
		Pitch:  c.Pitch,
		Volume: c.Volume,
		Voice:  c.Voice,
	}
}

// Validate checks if the configuration is valid and clamps rate, pitch
// and volume into range.
func (c *Config) Validate() error {
	validEngines := []string{EngineEspeak, EngineMock}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("%w: engine '%s' must be one of %v", ErrInvalidConfig, c.Engine, validEngines)
	}

	// Voice parameters saturate rather than fail.
	c.Rate = Clamp(c.Rate, MinRate, MaxRate)
	c.Pitch = Clamp(c.Pitch, MinPitch, MaxPitch)
	c.Volume = Clamp(c.Volume, MinVolume, MaxVolume)

	if c.SubmitDelay < 0 || c.SubmitDelay > 5*time.Second {
		return fmt.Errorf("%w: submit_delay must be between 0 and 5s, got %v", ErrInvalidConfig, c.SubmitDelay)
	}

	switch c.Engine {
	case EngineEspeak:
		if err := c.Espeak.Validate(); err != nil {
			return fmt.Errorf("espeak config: %w", err)
		}
	case EngineMock:
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	return nil
}

// Validate checks if the espeak-ng configuration is valid.
func (c *EspeakConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("%w: espeak binary path cannot be empty", ErrInvalidConfig)
	}
	if c.VoiceScan != 0 && c.VoiceScan < time.Second {
		return fmt.Errorf("%w: voice_scan must be 0 or at least 1 second, got %v", ErrInvalidConfig, c.VoiceScan)
	}
	if c.SpawnRate <= 0 {
		return fmt.Errorf("%w: spawn_rate must be positive, got %f", ErrInvalidConfig, c.SpawnRate)
	}
	if c.SpawnBurst < 1 {
		return fmt.Errorf("%w: spawn_burst must be at least 1, got %d", ErrInvalidConfig, c.SpawnBurst)
	}
	if c.SynthesisLimit < time.Second {
		return fmt.Errorf("%w: synthesis_limit must be at least 1 second, got %v", ErrInvalidConfig, c.SynthesisLimit)
	}
	return nil
}

// Validate checks if the mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 500 {
		return fmt.Errorf("%w: words_per_minute must be between 50 and 500, got %d", ErrInvalidConfig, c.WordsPerMinute)
	}
	if c.StartDelay < 0 {
		return fmt.Errorf("%w: start_delay cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MemoryMB < 0 || c.DiskMB < 0 {
		return fmt.Errorf("%w: cache sizes cannot be negative", ErrInvalidConfig)
	}
	if c.MaxAge < time.Minute {
		return fmt.Errorf("%w: max_age must be at least 1 minute, got %v", ErrInvalidConfig, c.MaxAge)
	}
	if c.CleanupEvery < time.Minute {
		return fmt.Errorf("%w: cleanup_every must be at least 1 minute, got %v", ErrInvalidConfig, c.CleanupEvery)
	}
	return nil
}
