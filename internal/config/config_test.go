package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"timeclock/internal/accounting"
	"timeclock/internal/clock"
	"timeclock/internal/scanflow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_RepositoryConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	def := accounting.DefaultRules()
	assert.Equal(t, def.DayStart, rules.DayStart)
	assert.Equal(t, def.Cutoffs, rules.Cutoffs)
	assert.Equal(t, def.Breaks, rules.Breaks)
	assert.Equal(t, def.Facility, rules.Facility)
	assert.Equal(t, def.Cooldown, rules.Cooldown)
	assert.True(t, decimal.RequireFromString("8.5").Equal(rules.Schedules[clock.BucketMonThu].NominalHours))
	assert.Equal(t, 15*time.Minute, rules.Schedules[clock.BucketFriday].ExitTolerance)
	assert.Equal(t, scanflow.DefaultOptions(), cfg.ScanFlowOptions())
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("SHEET_ID", "abc123")
	path := writeConfig(t, `
ledger:
  spreadsheet_id: "${SHEET_ID}"
accounting:
  cooldown_seconds: 0
  guard_policy: local_history
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Ledger.SpreadsheetID)
	assert.Equal(t, "sheets", cfg.Ledger.Backend)
	assert.Equal(t, "Registros", cfg.Ledger.Worksheets.Events)
	assert.Equal(t, 3*time.Second, cfg.LedgerTimeout())

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), rules.Cooldown)
	assert.Equal(t, accounting.PolicyLocalHistory, rules.GuardPolicy)
	assert.Equal(t, accounting.PolicyFailOpen, rules.ResolverPolicy)
	assert.Equal(t, clock.At(7, 0, 0), rules.DayStart)
}

func TestLoad_OverridesWindows(t *testing.T) {
	path := writeConfig(t, `
accounting:
  short_day: Thursday
  short_day_cutoff: "14:00"
  facility:
    windows:
      mon_thu:
        start: "15:00"
        end: "15:45"
        close: "15:10"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	rules, err := cfg.Rules()
	require.NoError(t, err)

	assert.Equal(t, time.Thursday, rules.Cutoffs.ShortDay)
	assert.Equal(t, clock.At(14, 0, 0), rules.Cutoffs.Short)
	w := rules.Facility.Windows[clock.BucketMonThu]
	assert.Equal(t, clock.At(15, 10, 0), w.Close)
	// Friday window keeps its default.
	assert.Equal(t, clock.At(15, 30, 0), rules.Facility.Windows[clock.BucketFriday].Close)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad policy":  "accounting:\n  guard_policy: maybe\n",
		"bad time":    "accounting:\n  cutoff: \"25:99\"\n",
		"bad weekday": "accounting:\n  short_day: someday\n",
		"bad bucket":  "accounting:\n  schedules:\n    sunday:\n      start: \"07:00\"\n",
		"bad break":   "accounting:\n  breaks:\n    - name: x\n      start: \"10:00\"\n      end: \"09:00\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("TIMECLOCK_CONFIG", "")
	assert.Equal(t, DefaultPath, ResolvePath(""))
	t.Setenv("TIMECLOCK_CONFIG", "/etc/timeclock.yaml")
	assert.Equal(t, "/etc/timeclock.yaml", ResolvePath(""))
	assert.Equal(t, "x.yaml", ResolvePath("x.yaml"))
}

func TestCacheTTL(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
	cfg.Redis.Address = "localhost:6379"
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "accounting:\n  cooldown_seconds: 60\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan int, 4)
	err := Watch(ctx, path, 10*time.Millisecond, func(c *Config) {
		updates <- c.Accounting.CooldownSeconds
	})
	require.NoError(t, err)
	assert.Equal(t, 60, <-updates)

	require.NoError(t, os.WriteFile(path, []byte("accounting:\n  cooldown_seconds: 30\n"), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case got := <-updates:
		assert.Equal(t, 30, got)
	case <-time.After(2 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
