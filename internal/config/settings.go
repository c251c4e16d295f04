package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/spf13/viper"
)

// RawFileName is the purchase order file inside the data directory.
const RawFileName = "purchase_orders_raw.csv"

// Defaults for unset configuration keys.
const (
	DefaultAPIBaseURL      = "http://localhost:5000"
	DefaultServerAddr      = ":5000"
	DefaultPipelineTimeout = 5 * time.Minute
)

// Settings is the typed view over the viper configuration.
type Settings struct {
	Logging   LoggingSettings
	API       APISettings
	Dashboard DashboardSettings
	Server    ServerSettings
	Database  DatabaseSettings
	Data      DataSettings
	Pipeline  PipelineSettings
	Cache     CacheSettings
}

// LoggingSettings controls slog output.
type LoggingSettings struct {
	Level  string
	Format string
	File   string
}

// APISettings configures the dashboard's HTTP client.
type APISettings struct {
	BaseURL string
	// Timeout of zero means requests never time out.
	Timeout time.Duration
}

// DashboardSettings configures the terminal dashboard.
type DashboardSettings struct {
	DownloadDir string
	Theme       string
}

// ServerSettings configures the API server.
type ServerSettings struct {
	Addr        string
	CORSOrigins []string
	MaxUpload   int64
}

// DatabaseSettings locates the SQLite database.
type DatabaseSettings struct {
	Path string
}

// DataSettings is the on-disk layout for uploads and pipeline outputs.
type DataSettings struct {
	Dir string
}

// UploadDir holds every uploaded CSV.
func (d DataSettings) UploadDir() string {
	return filepath.Join(d.Dir, "uploads")
}

// RawFile is the purchase order file the pipeline reads.
func (d DataSettings) RawFile() string {
	return filepath.Join(d.Dir, "raw", RawFileName)
}

// ProcessedDir holds the pipeline outputs.
func (d DataSettings) ProcessedDir() string {
	return filepath.Join(d.Dir, "processed")
}

// PipelineSettings configures the processing job.
type PipelineSettings struct {
	Command []string
	WorkDir string
	Timeout time.Duration
}

// CacheSettings configures the response cache.
type CacheSettings struct {
	RedisAddr string
	TTL       time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "$HOME/.local/share/costdb/dashboard.log")
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("dashboard.download_dir", ".")
	v.SetDefault("dashboard.theme", "default")
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload", int64(16<<20))
	v.SetDefault("database.path", "$HOME/.local/share/costdb/costdb.db")
	v.SetDefault("data.dir", "$HOME/.local/share/costdb/data")
	v.SetDefault("pipeline.command", []string{"python3", "run_pipeline.py"})
	v.SetDefault("pipeline.workdir", ".")
	v.SetDefault("pipeline.timeout", DefaultPipelineTimeout)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
}

// Load reads Settings from v, expanding paths.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			File:   ExpandPath(v.GetString("logging.file")),
		},
		API: APISettings{
			BaseURL: strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Dashboard: DashboardSettings{
			DownloadDir: ExpandPath(v.GetString("dashboard.download_dir")),
			Theme:       v.GetString("dashboard.theme"),
		},
		Server: ServerSettings{
			Addr:        v.GetString("server.addr"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
			MaxUpload:   v.GetInt64("server.max_upload"),
		},
		Database: DatabaseSettings{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Data: DataSettings{
			Dir: ExpandPath(v.GetString("data.dir")),
		},
		Pipeline: PipelineSettings{
			Command: v.GetStringSlice("pipeline.command"),
			WorkDir: ExpandPath(v.GetString("pipeline.workdir")),
			Timeout: v.GetDuration("pipeline.timeout"),
		},
		Cache: CacheSettings{
			RedisAddr: v.GetString("cache.redis_addr"),
			TTL:       v.GetDuration("cache.ttl"),
		},
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for obviously broken values.
func (s Settings) Validate() error {
	if s.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(s.API.BaseURL, "http://") && !strings.HasPrefix(s.API.BaseURL, "https://") {
		return fmt.Errorf("%w: api.base_url must be an http(s) URL: %s", common.ErrInvalidConfig, s.API.BaseURL)
	}
	if s.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout cannot be negative", common.ErrInvalidConfig)
	}
	if s.Server.MaxUpload <= 0 {
		return fmt.Errorf("%w: server.max_upload must be positive", common.ErrInvalidConfig)
	}
	if s.Pipeline.Timeout <= 0 {
		return fmt.Errorf("%w: pipeline.timeout must be positive", common.ErrInvalidConfig)
	}
	return nil
}
