package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7393 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7393)
	}
	if cfg.Progression.DailyCap != 100 {
		t.Errorf("Progression.DailyCap = %d, want 100", cfg.Progression.DailyCap)
	}
	want := []int{100, 50, 25, 0}
	if len(cfg.Progression.DiminishLadder) != len(want) {
		t.Fatalf("DiminishLadder = %v, want %v", cfg.Progression.DiminishLadder, want)
	}
	for i, pct := range want {
		if cfg.Progression.DiminishLadder[i] != pct {
			t.Errorf("DiminishLadder[%d] = %d, want %d", i, cfg.Progression.DiminishLadder[i], pct)
		}
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Setenv("TEND_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 9999
	cfg.Progression.DailyCap = 250
	cfg.Levels = []LevelConfig{
		{Level: 1, Name: "Seed", XP: 0},
		{Level: 2, Name: "Sprout", XP: 40},
	}

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.API.Port != 9999 {
		t.Errorf("Port = %d, want 9999", loaded.API.Port)
	}
	if loaded.Progression.DailyCap != 250 {
		t.Errorf("DailyCap = %d, want 250", loaded.Progression.DailyCap)
	}
	table := loaded.LevelTable()
	if len(table) != 2 || table[1].Name != "Sprout" || table[1].XP != 40 {
		t.Errorf("level table wrong: %+v", table)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TEND_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("expected default port, got %d", cfg.API.Port)
	}
}

func TestLoadConfig_EnvOverridesInsight(t *testing.T) {
	t.Setenv("TEND_HOME", t.TempDir())
	t.Setenv("TEND_INSIGHT_API_KEY", "sk-test")
	t.Setenv("TEND_INSIGHT_BASE_URL", "http://localhost:11434/v1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Insight.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want env override", cfg.Insight.APIKey)
	}
	if cfg.Insight.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q, want env override", cfg.Insight.BaseURL)
	}
}

func TestTendHome_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEND_HOME", dir)
	if got := TendHome(); got != dir {
		t.Errorf("TendHome() = %q, want %q", got, dir)
	}

	os.Unsetenv("TEND_HOME")
	home, _ := os.UserHomeDir()
	if got := TendHome(); got != filepath.Join(home, ".tend") {
		t.Errorf("TendHome() = %q, want ~/.tend", got)
	}
	t.Setenv("TEND_HOME", dir) // Restore for cleanup symmetry
}
