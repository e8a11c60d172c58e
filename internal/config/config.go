package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"timeclock/internal/accounting"
	"timeclock/internal/clock"
	"timeclock/internal/scanflow"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither the flag nor TIMECLOCK_CONFIG is set.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Clock struct {
		OffsetHours int `yaml:"offset_hours"`
	} `yaml:"clock"`

	Accounting AccountingConfig `yaml:"accounting"`
	Ledger     LedgerConfig     `yaml:"ledger"`

	ScanFlow struct {
		DirectServiceMin int    `yaml:"direct_service_min"`
		DirectServiceMax int    `yaml:"direct_service_max"`
		DirectOrder      string `yaml:"direct_order"`
	} `yaml:"scan_flow"`

	Storage struct {
		Dir string `yaml:"dir"`
	} `yaml:"storage"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Connectivity struct {
		Hosts                []string `yaml:"hosts"`
		TimeoutSeconds       int      `yaml:"timeout_seconds"`
		ProbeIntervalSeconds int      `yaml:"probe_interval_seconds"`
	} `yaml:"connectivity"`

	Sync struct {
		IntervalSeconds int  `yaml:"interval_seconds"`
		OnStart         bool `yaml:"on_start"`
	} `yaml:"sync"`

	API struct {
		Enabled        bool     `yaml:"enabled"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"api"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

type AccountingConfig struct {
	DayStart        clock.TimeOfDay           `yaml:"day_start"`
	Cutoff          clock.TimeOfDay           `yaml:"cutoff"`
	ShortDay        string                    `yaml:"short_day"`
	ShortDayCutoff  clock.TimeOfDay           `yaml:"short_day_cutoff"`
	Breaks          []BreakConfig             `yaml:"breaks"`
	Schedules       map[string]ScheduleConfig `yaml:"schedules"`
	Facility        FacilityConfig            `yaml:"facility"`
	CooldownSeconds int                       `yaml:"cooldown_seconds"`
	GuardPolicy     string                    `yaml:"guard_policy"`
	ResolverPolicy  string                    `yaml:"resolver_policy"`
}

type BreakConfig struct {
	Name  string          `yaml:"name"`
	Start clock.TimeOfDay `yaml:"start"`
	End   clock.TimeOfDay `yaml:"end"`
}

type ScheduleConfig struct {
	Start                 clock.TimeOfDay `yaml:"start"`
	End                   clock.TimeOfDay `yaml:"end"`
	NominalHours          float64         `yaml:"nominal_hours"`
	EntryToleranceMinutes int             `yaml:"entry_tolerance_minutes"`
	ExitToleranceMinutes  int             `yaml:"exit_tolerance_minutes"`
}

type FacilityConfig struct {
	Enabled       bool                            `yaml:"enabled"`
	ActivityCode  string                          `yaml:"activity_code"`
	ActivityLabel string                          `yaml:"activity_label"`
	OrderID       string                          `yaml:"order_id"`
	Windows       map[string]FacilityWindowConfig `yaml:"windows"`
}

type FacilityWindowConfig struct {
	Start clock.TimeOfDay `yaml:"start"`
	End   clock.TimeOfDay `yaml:"end"`
	Close clock.TimeOfDay `yaml:"close"`
}

type LedgerConfig struct {
	Backend           string `yaml:"backend"`
	SpreadsheetID     string `yaml:"spreadsheet_id"`
	CredentialsFile   string `yaml:"credentials_file"`
	WorkbookPath      string `yaml:"workbook_path"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`

	Worksheets struct {
		Events     string `yaml:"events"`
		Subjects   string `yaml:"subjects"`
		Activities string `yaml:"activities"`
		Orders     string `yaml:"orders"`
	} `yaml:"worksheets"`

	Breaker struct {
		ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
		OpenSeconds         int    `yaml:"open_seconds"`
	} `yaml:"breaker"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the configuration of a stand-alone terminal.
func Default() *Config {
	cfg := &Config{}
	cfg.Clock.OffsetHours = clock.DefaultOffsetHours

	rules := accounting.DefaultRules()
	a := &cfg.Accounting
	a.DayStart = rules.DayStart
	a.Cutoff = rules.Cutoffs.Default
	a.ShortDay = strings.ToLower(rules.Cutoffs.ShortDay.String())
	a.ShortDayCutoff = rules.Cutoffs.Short
	for _, w := range rules.Breaks {
		a.Breaks = append(a.Breaks, BreakConfig{Name: w.Name, Start: w.Start, End: w.End})
	}
	a.Schedules = make(map[string]ScheduleConfig, len(rules.Schedules))
	for bucket, s := range rules.Schedules {
		a.Schedules[string(bucket)] = ScheduleConfig{
			Start:                 s.Start,
			End:                   s.End,
			NominalHours:          s.NominalHours.InexactFloat64(),
			EntryToleranceMinutes: int(s.EntryTolerance / time.Minute),
			ExitToleranceMinutes:  int(s.ExitTolerance / time.Minute),
		}
	}
	a.Facility = FacilityConfig{
		Enabled:       rules.Facility.Enabled,
		ActivityCode:  rules.Facility.ActivityCode,
		ActivityLabel: rules.Facility.ActivityLabel,
		OrderID:       rules.Facility.OrderID,
		Windows:       make(map[string]FacilityWindowConfig, len(rules.Facility.Windows)),
	}
	for bucket, w := range rules.Facility.Windows {
		a.Facility.Windows[string(bucket)] = FacilityWindowConfig{Start: w.Start, End: w.End, Close: w.Close}
	}
	a.CooldownSeconds = int(rules.Cooldown / time.Second)
	a.GuardPolicy = string(rules.GuardPolicy)
	a.ResolverPolicy = string(rules.ResolverPolicy)

	flow := scanflow.DefaultOptions()
	cfg.ScanFlow.DirectServiceMin = flow.DirectMin
	cfg.ScanFlow.DirectServiceMax = flow.DirectMax
	cfg.ScanFlow.DirectOrder = flow.DirectOrder

	cfg.Ledger.Backend = "sheets"
	cfg.Ledger.TimeoutSeconds = 3
	cfg.Ledger.RequestsPerMinute = 60
	cfg.Ledger.Worksheets.Events = "Registros"
	cfg.Ledger.Worksheets.Subjects = "Datos_colab"
	cfg.Ledger.Worksheets.Activities = "Servicio"
	cfg.Ledger.Worksheets.Orders = "OPS"
	cfg.Ledger.Breaker.ConsecutiveFailures = 3
	cfg.Ledger.Breaker.OpenSeconds = 30

	cfg.Storage.Dir = "data"
	cfg.Database.Path = "data/history.db"
	cfg.Backup.IntervalHours = 24
	cfg.Backup.Path = "data/backups"
	cfg.Backup.RetentionDays = 14
	cfg.Redis.CacheTTLSeconds = 300
	cfg.Connectivity.Hosts = []string{"www.google.com:80", "8.8.8.8:53"}
	cfg.Connectivity.TimeoutSeconds = 3
	cfg.Connectivity.ProbeIntervalSeconds = 30
	cfg.Sync.IntervalSeconds = 300
	cfg.Sync.OnStart = true
	cfg.API.Port = 8080
	cfg.Monitoring.HealthCheckPort = 8090
	cfg.Monitoring.PrometheusPort = 9090
	cfg.Logging.Level = "info"
	return cfg
}

// ResolvePath picks the flag value, then TIMECLOCK_CONFIG, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("TIMECLOCK_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads the YAML file at path over the defaults. Keys absent from the
// file keep their default value.
func Load(path string) (*Config, error) {
	path = ResolvePath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := cfg.Rules(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Location is the fixed zone all accounting runs in.
func (c *Config) Location() *time.Location {
	return clock.Zone(c.Clock.OffsetHours)
}

// Rules converts the accounting section into engine rules.
func (c *Config) Rules() (accounting.Rules, error) {
	a := c.Accounting
	rules := accounting.Rules{
		DayStart: a.DayStart,
		Cutoffs: clock.Cutoffs{
			Default: a.Cutoff,
			Short:   a.ShortDayCutoff,
		},
		Cooldown: time.Duration(a.CooldownSeconds) * time.Second,
	}
	if !a.DayStart.Valid() || !a.Cutoff.Valid() || !a.ShortDayCutoff.Valid() {
		return accounting.Rules{}, fmt.Errorf("day_start, cutoff and short_day_cutoff must be valid times")
	}

	shortDay, err := parseWeekday(a.ShortDay)
	if err != nil {
		return accounting.Rules{}, err
	}
	rules.Cutoffs.ShortDay = shortDay

	for _, b := range a.Breaks {
		if !b.Start.Valid() || !b.End.Valid() || b.End <= b.Start {
			return accounting.Rules{}, fmt.Errorf("break %q: invalid window", b.Name)
		}
		rules.Breaks = append(rules.Breaks, accounting.Window{Name: b.Name, Start: b.Start, End: b.End})
	}

	rules.Schedules = make(map[clock.Bucket]accounting.Schedule, len(a.Schedules))
	for name, s := range a.Schedules {
		bucket, err := parseBucket(name)
		if err != nil {
			return accounting.Rules{}, fmt.Errorf("schedules: %w", err)
		}
		rules.Schedules[bucket] = accounting.Schedule{
			Start:          s.Start,
			End:            s.End,
			NominalHours:   decimal.NewFromFloat(s.NominalHours),
			EntryTolerance: time.Duration(s.EntryToleranceMinutes) * time.Minute,
			ExitTolerance:  time.Duration(s.ExitToleranceMinutes) * time.Minute,
		}
	}

	f := a.Facility
	rules.Facility = accounting.FacilityConfig{
		Enabled:       f.Enabled,
		ActivityCode:  f.ActivityCode,
		ActivityLabel: f.ActivityLabel,
		OrderID:       f.OrderID,
		Windows:       make(map[clock.Bucket]accounting.FacilityWindow, len(f.Windows)),
	}
	for name, w := range f.Windows {
		bucket, err := parseBucket(name)
		if err != nil {
			return accounting.Rules{}, fmt.Errorf("facility windows: %w", err)
		}
		if bucket == clock.BucketSaturday {
			return accounting.Rules{}, fmt.Errorf("facility windows: %s is not a weekday bucket", name)
		}
		rules.Facility.Windows[bucket] = accounting.FacilityWindow{Start: w.Start, End: w.End, Close: w.Close}
	}

	if rules.GuardPolicy, err = accounting.ParsePolicy(a.GuardPolicy); err != nil {
		return accounting.Rules{}, fmt.Errorf("guard_policy: %w", err)
	}
	if rules.ResolverPolicy, err = accounting.ParsePolicy(a.ResolverPolicy); err != nil {
		return accounting.Rules{}, fmt.Errorf("resolver_policy: %w", err)
	}
	return rules, nil
}

// ScanFlowOptions configures direct services of the scan dialog.
func (c *Config) ScanFlowOptions() scanflow.Options {
	return scanflow.Options{
		DirectMin:   c.ScanFlow.DirectServiceMin,
		DirectMax:   c.ScanFlow.DirectServiceMax,
		DirectOrder: c.ScanFlow.DirectOrder,
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func parseBucket(s string) (clock.Bucket, error) {
	switch b := clock.Bucket(strings.ToLower(s)); b {
	case clock.BucketMonThu, clock.BucketFriday, clock.BucketSaturday:
		return b, nil
	default:
		return clock.BucketNone, fmt.Errorf("unknown bucket %q", s)
	}
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func (c *Config) LedgerTimeout() time.Duration { return seconds(c.Ledger.TimeoutSeconds, 3) }

func (c *Config) BreakerTimeout() time.Duration { return seconds(c.Ledger.Breaker.OpenSeconds, 30) }

func (c *Config) ProbeTimeout() time.Duration { return seconds(c.Connectivity.TimeoutSeconds, 3) }

func (c *Config) ProbeInterval() time.Duration {
	return seconds(c.Connectivity.ProbeIntervalSeconds, 30)
}

func (c *Config) SyncInterval() time.Duration { return seconds(c.Sync.IntervalSeconds, 300) }

// CacheTTL is zero when the Redis lookup cache is off.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.Address == "" || c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}
