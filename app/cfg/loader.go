package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/adrg/xdg"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const maxNumberedCredentials = 20

type rawCfg struct {
	// Storage and jobs
	JobsDir string `long:"jobs-dir" env:"JOBS_DIR" default:"./jobs" description:"Directory containing job configuration files"`
	DBPath  string `long:"db-path" env:"DB_PATH" description:"SQLite database path (defaults to the XDG data directory)"`
	EnvFile string `long:"env-file" env:"ENV_FILE" default:".env" description:"Dotenv file loaded before reading the environment"`

	// HTTP server and scheduling
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Search and extraction
	SearchProvider     string   `long:"search-provider" env:"SEARCH_PROVIDER" default:"serpapi" choice:"serpapi" choice:"gnews-rss" description:"News search provider"`
	SerpAPIKeys        []string `long:"serpapi-key" env:"SERPAPI_KEYS" env-delim:"," description:"SerpAPI keys, rotated round-robin"`
	DiffbotTokens      []string `long:"diffbot-token" env:"DIFFBOT_TOKENS" env-delim:"," description:"Diffbot tokens, rotated round-robin"`
	PublisherDomains   []string `long:"domain" env:"PUBLISHER_DOMAINS" env-delim:"," description:"Publisher domains searched (defaults to the Indian business press)"`
	Language           string   `long:"language" env:"NEWS_LANGUAGE" default:"en" description:"Search language"`
	Region             string   `long:"region" env:"NEWS_REGION" default:"in" description:"Search region"`
	MinContentLength   int      `long:"min-content-length" env:"MIN_CONTENT_LENGTH" default:"50" description:"Minimum extracted article length in characters"`
	RespectRobots      bool     `long:"respect-robots" env:"RESPECT_ROBOTS" description:"Skip direct extraction where robots.txt disallows it"`
	RetryOnEmptyWindow bool     `long:"retry-empty-window" env:"RETRY_EMPTY_WINDOW" description:"Retry a search when no items fall inside the time window"`
	PairDelayMin       int      `long:"pair-delay-min" env:"PAIR_DELAY_MIN" default:"10" description:"Minimum delay between keyword pairs in seconds"`
	PairDelayMax       int      `long:"pair-delay-max" env:"PAIR_DELAY_MAX" default:"25" description:"Maximum delay between keyword pairs in seconds"`
	FetchTimeout       int      `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15" description:"Per-request timeout in seconds"`

	// Delivery
	SMTPHost string `long:"smtp-host" env:"SMTP_HOST" description:"SMTP relay host (derived from the sender when empty)"`
	SMTPPort int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP relay port"`

	// Run mode
	Once bool     `long:"once" description:"Run jobs immediately and exit"`
	Jobs []string `long:"job" description:"Job to run with --once (repeatable, defaults to all enabled jobs)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; regwatch/1.0)" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Kolkata" description:"Timezone for time windows and schedules"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogJSON   bool   `long:"log-json" env:"LOG_JSON" description:"Emit JSON logs"`
}

// Load reads configuration from the dotenv file, the environment and os.Args.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	if err := loadEnvFile(envFileFromArgs(args)); err != nil {
		return nil, err
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		JobsDir:            raw.JobsDir,
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		SchedulerInterval:  raw.SchedulerInterval,
		APIAccessKey:       raw.APIAccessKey,
		SearchProvider:     raw.SearchProvider,
		SerpAPIKeys:        mergeCredentials(raw.SerpAPIKeys, collectNumbered("SERPAPI_KEY")),
		DiffbotTokens:      mergeCredentials(raw.DiffbotTokens, collectNumbered("DIFFBOT_TOKEN")),
		PublisherDomains:   trimAll(raw.PublisherDomains),
		Language:           raw.Language,
		Region:             raw.Region,
		MinContentLength:   raw.MinContentLength,
		RespectRobots:      raw.RespectRobots,
		RetryOnEmptyWindow: raw.RetryOnEmptyWindow,
		PairDelayMin:       time.Duration(raw.PairDelayMin) * time.Second,
		PairDelayMax:       time.Duration(raw.PairDelayMax) * time.Second,
		FetchTimeout:       time.Duration(raw.FetchTimeout) * time.Second,
		SMTPHost:           raw.SMTPHost,
		SMTPPort:           raw.SMTPPort,
		Once:               raw.Once,
		Jobs:               raw.Jobs,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		LogJSON:            raw.LogJSON,
		Version:            GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		path, err := xdg.DataFile("regwatch/regwatch.db")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		cfg.DBPath = path
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.SchedulerInterval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %d", cfg.SchedulerInterval)
	}
	if cfg.PairDelayMin < 0 || cfg.PairDelayMax < cfg.PairDelayMin {
		return fmt.Errorf("invalid pair delay range %v-%v", cfg.PairDelayMin, cfg.PairDelayMax)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", cfg.FetchTimeout)
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP port %d", cfg.SMTPPort)
	}
	return nil
}

// envFileFromArgs finds --env-file before flags are parsed, since the file
// itself feeds the environment the parser reads.
func envFileFromArgs(args []string) string {
	for i, arg := range args {
		if value, ok := strings.CutPrefix(arg, "--env-file="); ok {
			return value
		}
		if arg == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return cmp.Or(os.Getenv("ENV_FILE"), ".env")
}

// loadEnvFile never overrides variables already set in the environment.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// collectNumbered reads PREFIX1..PREFIXn, skipping unset slots.
func collectNumbered(prefix string) []string {
	var values []string
	for i := 1; i <= maxNumberedCredentials; i++ {
		if value := strings.TrimSpace(os.Getenv(prefix + strconv.Itoa(i))); value != "" {
			values = append(values, value)
		}
	}
	return values
}

func mergeCredentials(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, value := range trimAll(list) {
			if !seen[value] {
				seen[value] = true
				merged = append(merged, value)
			}
		}
	}
	return merged
}

func trimAll(values []string) []string {
	var out []string
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
