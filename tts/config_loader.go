package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads speech configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig loads speech configuration from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("tts.engine") {
		cfg.Engine = v.GetString("tts.engine")
	}

	// Voice parameters
	if v.IsSet("tts.rate") {
		cfg.Rate = v.GetFloat64("tts.rate")
	}
	if v.IsSet("tts.pitch") {
		cfg.Pitch = v.GetFloat64("tts.pitch")
	}
	if v.IsSet("tts.volume") {
		cfg.Volume = v.GetFloat64("tts.volume")
	}
	if v.IsSet("tts.voice") {
		cfg.Voice = v.GetString("tts.voice")
	}
	if v.IsSet("tts.submit_delay") {
		cfg.SubmitDelay = v.GetDuration("tts.submit_delay")
	}

	cfg.Espeak = loadEspeakConfig(v)
	cfg.Mock = loadMockConfig(v)
	cfg.Cache = loadCacheConfig(v)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}

	return cfg, nil
}

// loadEspeakConfig loads espeak-ng configuration from v.
func loadEspeakConfig(v *viper.Viper) EspeakConfig {
	cfg := DefaultEspeakConfig()

	if v.IsSet("tts.espeak.binary") {
		cfg.Binary = v.GetString("tts.espeak.binary")
	}
	if v.IsSet("tts.espeak.voice_scan") {
		cfg.VoiceScan = v.GetDuration("tts.espeak.voice_scan")
	}
	if v.IsSet("tts.espeak.spawn_rate") {
		cfg.SpawnRate = v.GetFloat64("tts.espeak.spawn_rate")
	}
	if v.IsSet("tts.espeak.spawn_burst") {
		cfg.SpawnBurst = v.GetInt("tts.espeak.spawn_burst")
	}
	if v.IsSet("tts.espeak.synthesis_limit") {
		cfg.SynthesisLimit = v.GetDuration("tts.espeak.synthesis_limit")
	}

	return cfg
}

// loadMockConfig loads mock engine configuration from v.
func loadMockConfig(v *viper.Viper) MockConfig {
	cfg := DefaultMockConfig()

	if v.IsSet("tts.mock.start_delay") {
		cfg.StartDelay = v.GetDuration("tts.mock.start_delay")
	}
	if v.IsSet("tts.mock.words_per_minute") {
		cfg.WordsPerMinute = v.GetInt("tts.mock.words_per_minute")
	}

	return cfg
}

// loadCacheConfig loads cache configuration from v.
func loadCacheConfig(v *viper.Viper) CacheConfig {
	cfg := DefaultCacheConfig()

	if v.IsSet("tts.cache.enabled") {
		cfg.Enabled = v.GetBool("tts.cache.enabled")
	}
	if v.IsSet("tts.cache.dir") {
		cfg.Dir = v.GetString("tts.cache.dir")
	}
	if v.IsSet("tts.cache.memory_mb") {
		cfg.MemoryMB = v.GetInt("tts.cache.memory_mb")
	}
	if v.IsSet("tts.cache.disk_mb") {
		cfg.DiskMB = v.GetInt("tts.cache.disk_mb")
	}
	if v.IsSet("tts.cache.max_age") {
		cfg.MaxAge = v.GetDuration("tts.cache.max_age")
	}
	if v.IsSet("tts.cache.cleanup_every") {
		cfg.CleanupEvery = v.GetDuration("tts.cache.cleanup_every")
	}

	return cfg
}

// SetDefaults sets default values in Viper for speech configuration.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("tts.engine", defaults.Engine)
	v.SetDefault("tts.rate", defaults.Rate)
	v.SetDefault("tts.pitch", defaults.Pitch)
	v.SetDefault("tts.volume", defaults.Volume)
	v.SetDefault("tts.voice", defaults.Voice)
	v.SetDefault("tts.submit_delay", defaults.SubmitDelay.String())

	// espeak-ng defaults
	v.SetDefault("tts.espeak.binary", defaults.Espeak.Binary)
	v.SetDefault("tts.espeak.voice_scan", defaults.Espeak.VoiceScan.String())
	v.SetDefault("tts.espeak.spawn_rate", defaults.Espeak.SpawnRate)
	v.SetDefault("tts.espeak.spawn_burst", defaults.Espeak.SpawnBurst)
	v.SetDefault("tts.espeak.synthesis_limit", defaults.Espeak.SynthesisLimit.String())

	// Mock defaults
	v.SetDefault("tts.mock.start_delay", defaults.Mock.StartDelay.String())
	v.SetDefault("tts.mock.words_per_minute", defaults.Mock.WordsPerMinute)

	// Cache defaults
	v.SetDefault("tts.cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("tts.cache.memory_mb", defaults.Cache.MemoryMB)
	v.SetDefault("tts.cache.disk_mb", defaults.Cache.DiskMB)
	v.SetDefault("tts.cache.max_age", defaults.Cache.MaxAge.String())
	v.SetDefault("tts.cache.cleanup_every", defaults.Cache.CleanupEvery.String())
}
