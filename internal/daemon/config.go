// Package daemon manages the tend daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/tendlog/tend/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API         APIConfig         `toml:"api"`
	Logging     LoggingConfig     `toml:"logging"`
	Progression ProgressionConfig `toml:"progression"`
	Insight     InsightConfig     `toml:"insight"`
	Quests      []domain.QuestDef `toml:"quests"`
	Levels      []LevelConfig     `toml:"levels"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
	File   string `toml:"file"`   // Empty = stderr
}

// ProgressionConfig mirrors domain.AccrualRules in TOML form.
type ProgressionConfig struct {
	DailyCap            int64 `toml:"daily_cap"`
	DiminishLadder      []int `toml:"diminish_ladder"`
	SignalBaseXP        int64 `toml:"signal_base_xp"`
	ReflectionBaseXP    int64 `toml:"reflection_base_xp"`
	StreakBonusPerDay   int64 `toml:"streak_bonus_per_day"`
	StreakBonusCap      int64 `toml:"streak_bonus_cap"`
	VarietyBonusXP      int64 `toml:"variety_bonus_xp"`
	VarietyMinSubskills int   `toml:"variety_min_subskills"`
	ArtifactBonusXP     int64 `toml:"artifact_bonus_xp"`
	OverallLevelDivisor int64 `toml:"overall_level_divisor"`
}

// Rules converts the TOML section to domain rules.
func (p ProgressionConfig) Rules() domain.AccrualRules {
	return domain.AccrualRules{
		DailyCap:            p.DailyCap,
		Ladder:              p.DiminishLadder,
		SignalBaseXP:        p.SignalBaseXP,
		ReflectionBaseXP:    p.ReflectionBaseXP,
		StreakBonusPerDay:   p.StreakBonusPerDay,
		StreakBonusCap:      p.StreakBonusCap,
		VarietyBonusXP:      p.VarietyBonusXP,
		VarietyMinSubskills: p.VarietyMinSubskills,
		ArtifactBonusXP:     p.ArtifactBonusXP,
		OverallLevelDivisor: p.OverallLevelDivisor,
	}
}

// InsightConfig controls the optional coaching collaborator.
type InsightConfig struct {
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"api_key"`
	Model        string `toml:"model"`
	TimeoutSecs  int    `toml:"timeout_secs"`
	CacheMinutes int    `toml:"cache_minutes"`
}

// LevelConfig is one skill-level threshold row in TOML form.
type LevelConfig struct {
	Level int    `toml:"level"`
	Name  string `toml:"name"`
	XP    int64  `toml:"xp"`
}

// LevelTable converts configured rows to domain thresholds. Empty config
// means the stock table.
func (c Config) LevelTable() []domain.LevelThreshold {
	table := make([]domain.LevelThreshold, 0, len(c.Levels))
	for _, l := range c.Levels {
		table = append(table, domain.LevelThreshold{Level: l.Level, Name: l.Name, XP: l.XP})
	}
	return table
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := tendHome()
	rules := domain.DefaultAccrualRules()
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    7393,
			Metrics: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(homeDir, "tend.log"),
		},
		Progression: ProgressionConfig{
			DailyCap:            rules.DailyCap,
			DiminishLadder:      rules.Ladder,
			SignalBaseXP:        rules.SignalBaseXP,
			ReflectionBaseXP:    rules.ReflectionBaseXP,
			StreakBonusPerDay:   rules.StreakBonusPerDay,
			StreakBonusCap:      rules.StreakBonusCap,
			VarietyBonusXP:      rules.VarietyBonusXP,
			VarietyMinSubskills: rules.VarietyMinSubskills,
			ArtifactBonusXP:     rules.ArtifactBonusXP,
			OverallLevelDivisor: rules.OverallLevelDivisor,
		},
		Insight: InsightConfig{
			Model:        "gpt-4o-mini",
			TimeoutSecs:  20,
			CacheMinutes: 60,
		},
	}
}

// LoadConfig reads config from ~/.tend/config.toml, falling back to
// defaults. A .env file in the data directory is loaded first so that
// TEND_INSIGHT_API_KEY and friends can stay out of the TOML.
func LoadConfig() (Config, error) {
	_ = godotenv.Load(filepath.Join(tendHome(), ".env"))

	cfg := DefaultConfig()
	path := filepath.Join(tendHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnv(&cfg)
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets the environment override secrets and the collaborator
// endpoint without touching config.toml.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TEND_INSIGHT_API_KEY"); v != "" {
		cfg.Insight.APIKey = v
	}
	if v := os.Getenv("TEND_INSIGHT_BASE_URL"); v != "" {
		cfg.Insight.BaseURL = v
	}
	if v := os.Getenv("TEND_INSIGHT_MODEL"); v != "" {
		cfg.Insight.Model = v
	}
}

// InsightTimeout returns the configured request deadline.
func (c Config) InsightTimeout() time.Duration {
	return time.Duration(c.Insight.TimeoutSecs) * time.Second
}

// InsightCacheFor returns how long one user's insight stays fresh.
func (c Config) InsightCacheFor() time.Duration {
	return time.Duration(c.Insight.CacheMinutes) * time.Minute
}

// SaveConfig writes the config to ~/.tend/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(tendHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// tendHome returns the tend data directory.
func tendHome() string {
	if env := os.Getenv("TEND_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tend")
}

// TendHome is exported for use by other packages.
func TendHome() string {
	return tendHome()
}
