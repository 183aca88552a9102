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
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"media_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"media_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"media_page" description:"Database name"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing feed source configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for source ingestion"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	RedisAddr         string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the resolver cache (optional, in-memory cache used when empty)"`

	// Ingestion configuration
	MinRefetchInterval  int     `long:"min-refetch-interval" env:"MIN_REFETCH_INTERVAL" default:"15" description:"Minimum minutes between fetches of the same source"`
	NearDupThreshold    float64 `long:"near-dup-threshold" env:"NEAR_DUP_THRESHOLD" default:"0.85" description:"MinHash similarity at or above which content is a near duplicate"`
	NearDupWindowDays   int     `long:"near-dup-window-days" env:"NEAR_DUP_WINDOW_DAYS" default:"30" description:"Trailing window in days for near-duplicate comparison"`
	MinHashPermutations int     `long:"minhash-permutations" env:"MINHASH_PERMUTATIONS" default:"128" description:"Number of MinHash permutations"`
	MinHashSeed         int64   `long:"minhash-seed" env:"MINHASH_SEED" default:"1" description:"Seed for MinHash coefficient generation"`

	// One-shot mode
	RunOnce    bool   `long:"once" description:"Run a single ingestion cycle and exit"`
	ForceFetch bool   `long:"force" description:"Bypass the minimum re-fetch interval"`
	SourceName string `long:"source" description:"Restrict ingestion to one named source (implies --once)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Corner League Media/1.0" description:"User agent string for HTTP requests"`
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
		DBHost:              raw.DBHost,
		DBPort:              raw.DBPort,
		DBUser:              raw.DBUser,
		DBPassword:          raw.DBPassword,
		DBName:              raw.DBName,
		SourcesDir:          raw.SourcesDir,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		RedisAddr:           raw.RedisAddr,
		MinRefetchInterval:  raw.MinRefetchInterval,
		NearDupThreshold:    raw.NearDupThreshold,
		NearDupWindowDays:   raw.NearDupWindowDays,
		MinHashPermutations: raw.MinHashPermutations,
		MinHashSeed:         raw.MinHashSeed,
		RunOnce:             raw.RunOnce || raw.SourceName != "",
		ForceFetch:          raw.ForceFetch,
		SourceName:          raw.SourceName,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
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
