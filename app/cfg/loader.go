package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./dealwatch.db" description:"Path to the SQLite state database"`

	// Application configuration
	SitesDir       string `long:"sites-dir" env:"SITES_DIR" default:"./sites" description:"Directory containing site configuration files"`
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP control server port"`
	UpdateInterval int    `long:"update-interval" env:"UPDATE_INTERVAL" default:"180" description:"Site check interval in seconds"`
	FetchTimeout   int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Feed fetch timeout in seconds"`
	NetProbeAddr   string `long:"net-probe-addr" env:"NET_PROBE_ADDR" default:"1.1.1.1:53" description:"Address dialed to check network reachability before a cycle"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for control endpoints (optional)"`

	// Notification preferences
	KeepAwake     bool `long:"keep-awake" env:"KEEP_AWAKE" description:"Hold the wake guard for the scheduler's whole lifetime"`
	NotifyVibrate bool `long:"notify-vibrate" env:"NOTIFY_VIBRATE" description:"Request vibration on notifications"`
	NotifyLight   bool `long:"notify-light" env:"NOTIFY_LIGHT" description:"Request notification light on notifications"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"DealWatch/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		SitesDir:       raw.SitesDir,
		Port:           raw.Port,
		UpdateInterval: raw.UpdateInterval,
		FetchTimeout:   raw.FetchTimeout,
		NetProbeAddr:   raw.NetProbeAddr,
		APIAccessKey:   raw.APIAccessKey,
		KeepAwake:      raw.KeepAwake,
		NotifyVibrate:  raw.NotifyVibrate,
		NotifyLight:    raw.NotifyLight,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
