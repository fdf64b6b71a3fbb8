package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	SourceSheets = "sheets"
	SourceMySQL  = "mysql"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	DataSource   string
	SheetsBase   string
	SheetID      string
	SheetRange   string
	SheetRanges  []string
	ClientEmail  string
	PrivateKey   string
	SheetsAPIKey string
	SheetsRPS    int

	SheetCacheTTL  time.Duration
	FilterCacheTTL time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string
	MySQLDSN  string

	Workers     int
	CORSOrigins []string
	TZName      string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		DataSource:   strings.ToLower(env("DATA_SOURCE", SourceSheets)),
		SheetsBase:   env("GOOGLE_SHEETS_BASE_URL", "https://sheets.googleapis.com/v4"),
		SheetID:      os.Getenv("GOOGLE_SHEET_ID"),
		SheetRange:   env("GOOGLE_SHEET_RANGE", "MainSheet!A:AL"),
		ClientEmail:  os.Getenv("GOOGLE_SHEETS_CLIENT_EMAIL"),
		PrivateKey:   privateKey(os.Getenv("GOOGLE_SHEETS_PRIVATE_KEY")),
		SheetsAPIKey: os.Getenv("GOOGLE_SHEETS_API_KEY"),
		SheetsRPS:    atoi("SHEETS_RPS", 5),

		SheetCacheTTL:  time.Duration(atoi("SHEET_CACHE_TTL_SECONDS", 900)) * time.Second,
		FilterCacheTTL: time.Duration(atoi("FILTER_CACHE_TTL_SECONDS", 300)) * time.Second,

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/playgroup?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		Workers:     atoi("INGEST_WORKERS", 4),
		CORSOrigins: list(env("CORS_ALLOWED_ORIGINS", "*")),
		TZName:      env("TZ_NAME", "Local"),
	}
	c.SheetRanges = list(os.Getenv("GOOGLE_SHEET_RANGES"))
	if len(c.SheetRanges) == 0 {
		c.SheetRanges = []string{c.SheetRange}
	}
	if c.Workers < 1 {
		c.Workers = 1
	}

	if c.SheetID == "" {
		log.Warn().Msg("GOOGLE_SHEET_ID is empty")
	}
	if (c.ClientEmail == "" || c.PrivateKey == "") && c.SheetsAPIKey == "" {
		log.Warn().Msg("no Google Sheets credentials: set GOOGLE_SHEETS_CLIENT_EMAIL and GOOGLE_SHEETS_PRIVATE_KEY, or GOOGLE_SHEETS_API_KEY")
	}
	return c
}

// Location resolves TZName, falling back to the process zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZName)
	if err != nil {
		log.Warn().Err(err).Str("tz", c.TZName).Msg("unknown time zone, using local")
		return time.Local
	}
	return loc
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// privateKey undoes the \n escaping that PEM keys get in single-line env files.
func privateKey(v string) string {
	return strings.ReplaceAll(v, `\n`, "\n")
}

func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
