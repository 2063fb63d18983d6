package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/timmy/tractorhub/internal/logger"
)

type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Discover DiscoverConfig `mapstructure:"discover"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	Images   ImagesConfig   `mapstructure:"images"`
	News     NewsConfig     `mapstructure:"news"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	FileOnly   bool   `mapstructure:"file_only"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// HTTPConfig controls how remote pages are fetched and paced.
type HTTPConfig struct {
	UserAgent     string        `mapstructure:"user_agent" validate:"required"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"gte=0"`
	MinDelay      time.Duration `mapstructure:"min_delay" validate:"gte=0"`
	MaxDelay      time.Duration `mapstructure:"max_delay" validate:"gtefield=MinDelay"`
	PauseEvery    int           `mapstructure:"pause_every" validate:"gte=0"`
	PauseDuration time.Duration `mapstructure:"pause_duration" validate:"gte=0"`
}

type PathsConfig struct {
	DataDir       string `mapstructure:"data_dir" validate:"required"`
	Catalog       string `mapstructure:"catalog"`
	Curated       string `mapstructure:"curated"`
	Extracted     string `mapstructure:"extracted"`
	CheckpointDir string `mapstructure:"checkpoint_dir"`
	ImageMap      string `mapstructure:"image_map"`
	News          string `mapstructure:"news"`
	Links         string `mapstructure:"links"`
	BrandWebsites string `mapstructure:"brand_websites"`
	BrandLogos    string `mapstructure:"brand_logos"`
}

// Resolve returns p joined onto the data directory unless it is already absolute.
func (p PathsConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.DataDir, path)
}

// Checkpoint returns the checkpoint file path for a job.
func (p PathsConfig) Checkpoint(job string) string {
	return filepath.Join(p.Resolve(p.CheckpointDir), job+".checkpoint.json")
}

type DiscoverConfig struct {
	ListingURLs      []string `mapstructure:"listing_urls"`
	PageCap          int      `mapstructure:"page_cap" validate:"gte=1"`
	CanonicalPattern string   `mapstructure:"canonical_pattern" validate:"required"`
	ExcludePatterns  []string `mapstructure:"exclude_patterns"`
}

type ExtractConfig struct {
	Bounds BoundsConfig `mapstructure:"bounds"`
}

// BoundsConfig holds plausibility thresholds for extracted numbers.
type BoundsConfig struct {
	MinHP        float64 `mapstructure:"min_hp"`
	MaxHP        float64 `mapstructure:"max_hp" validate:"gtfield=MinHP"`
	MinCylinders int     `mapstructure:"min_cylinders"`
	MaxCylinders int     `mapstructure:"max_cylinders" validate:"gtefield=MinCylinders"`
	MinKW        float64 `mapstructure:"min_kw"`
	MaxKW        float64 `mapstructure:"max_kw" validate:"gtfield=MinKW"`
	MinPTOHP     float64 `mapstructure:"min_pto_hp"`
	MaxPTOHP     float64 `mapstructure:"max_pto_hp" validate:"gtfield=MinPTOHP"`
	MinWeightKG  float64 `mapstructure:"min_weight_kg"`
	MaxWeightKG  float64 `mapstructure:"max_weight_kg" validate:"gtfield=MinWeightKG"`
	MinYear      int     `mapstructure:"min_year"`
}

type RunnerConfig struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	SaveEvery   int           `mapstructure:"save_every" validate:"gte=1"`
	ItemTimeout time.Duration `mapstructure:"item_timeout" validate:"gt=0"`
}

type ImagesConfig struct {
	CommonsEndpoint string        `mapstructure:"commons_endpoint" validate:"required,url"`
	MaxCandidates   int           `mapstructure:"max_candidates" validate:"gte=1"`
	MinWidth        int           `mapstructure:"min_width" validate:"gte=0"`
	AllowedLicenses []string      `mapstructure:"allowed_licenses"`
	Browser         BrowserConfig `mapstructure:"browser"`
}

// BrowserConfig configures the headless browser search backend.
type BrowserConfig struct {
	SearchURL string        `mapstructure:"search_url"`
	Headless  bool          `mapstructure:"headless"`
	NoSandbox bool          `mapstructure:"no_sandbox"`
	ExecPath  string        `mapstructure:"exec_path"`
	WaitTime  time.Duration `mapstructure:"wait_time"`
}

type NewsConfig struct {
	Feeds               []FeedConfig `mapstructure:"feeds" validate:"dive"`
	RetentionMonths     int          `mapstructure:"retention_months" validate:"gte=1"`
	SimilarityThreshold float64      `mapstructure:"similarity_threshold" validate:"gt=0,lte=1"`
	ExcerptLength       int          `mapstructure:"excerpt_length" validate:"gte=20"`
}

type FeedConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	URL      string `mapstructure:"url" validate:"required,url"`
	Category string `mapstructure:"category"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	}
	return d.Path + "?_busy_timeout=5000"
}

// StorageConfig configures optional publishing of output artifacts.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Enabled true"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	Prefix    string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"gt=0,lt=65536"`
	Mode string     `mapstructure:"mode" validate:"oneof=debug release test"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("http.user_agent", "tractorhub-pipeline/1.0 (+https://github.com/timmy/tractorhub)")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.min_delay", "500ms")
	v.SetDefault("http.max_delay", "1500ms")
	v.SetDefault("http.pause_every", 50)
	v.SetDefault("http.pause_duration", "10s")

	v.SetDefault("paths.data_dir", "./data")
	v.SetDefault("paths.catalog", "catalog.json")
	v.SetDefault("paths.curated", "curated.json")
	v.SetDefault("paths.extracted", "extracted.json")
	v.SetDefault("paths.checkpoint_dir", "checkpoints")
	v.SetDefault("paths.image_map", "images.json")
	v.SetDefault("paths.news", "news.json")
	v.SetDefault("paths.links", "links.jsonl")
	v.SetDefault("paths.brand_websites", "brand-websites.json")
	v.SetDefault("paths.brand_logos", "brand-logos.json")

	v.SetDefault("discover.listing_urls", []string{})
	v.SetDefault("discover.page_cap", 25)
	v.SetDefault("discover.canonical_pattern", `^/[a-z-]+/\d+/\d+/\d+/\d+-[a-z0-9-]+\.html$`)
	v.SetDefault("discover.exclude_patterns", []string{`(?i)index`, `(?i)/category/`, `(?i)/show/`, `(?i)-show\.html$`})

	v.SetDefault("extract.bounds.min_hp", 5)
	v.SetDefault("extract.bounds.max_hp", 1000)
	v.SetDefault("extract.bounds.min_cylinders", 1)
	v.SetDefault("extract.bounds.max_cylinders", 12)
	v.SetDefault("extract.bounds.min_kw", 3.7)
	v.SetDefault("extract.bounds.max_kw", 750)
	v.SetDefault("extract.bounds.min_pto_hp", 1)
	v.SetDefault("extract.bounds.max_pto_hp", 1000)
	v.SetDefault("extract.bounds.min_weight_kg", 50)
	v.SetDefault("extract.bounds.max_weight_kg", 60000)
	v.SetDefault("extract.bounds.min_year", 1890)

	v.SetDefault("runner.concurrency", 4)
	v.SetDefault("runner.save_every", 10)
	v.SetDefault("runner.item_timeout", "90s")

	v.SetDefault("images.commons_endpoint", "https://commons.wikimedia.org/w/api.php")
	v.SetDefault("images.max_candidates", 20)
	v.SetDefault("images.min_width", 400)
	v.SetDefault("images.allowed_licenses", []string{"cc0", "cc by", "cc-by", "public domain", "pd"})
	v.SetDefault("images.browser.search_url", "https://www.google.com/search?tbm=isch&q=")
	v.SetDefault("images.browser.headless", true)
	v.SetDefault("images.browser.no_sandbox", false)
	v.SetDefault("images.browser.wait_time", "2s")

	v.SetDefault("news.feeds", []map[string]string{})
	v.SetDefault("news.retention_months", 6)
	v.SetDefault("news.similarity_threshold", 0.6)
	v.SetDefault("news.excerpt_length", 280)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/pipeline.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.prefix", "tractorhub")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
}

// Load reads configuration from file, .env and environment.
// Parameters:
//   - configPath: explicit config file, or "" to search ./configs and the working directory.
//
// Returns:
//   - *Config: validated configuration.
//   - error: non-nil if the file is unreadable or a value fails validation.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("http.user_agent", "TRACTORHUB_USER_AGENT")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("images.browser.exec_path", "CHROME_PATH")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ToLoggerConfig converts the logging section into a logger configuration.
func (c *Config) ToLoggerConfig(service string) *logger.Config {
	return &logger.Config{
		Level:       c.Logging.Level,
		Format:      c.Logging.Format,
		ServiceName: service,
		File:        c.Logging.File,
		FileOnly:    c.Logging.FileOnly,
		MaxSizeMB:   c.Logging.MaxSizeMB,
		MaxBackups:  c.Logging.MaxBackups,
		MaxAgeDays:  c.Logging.MaxAgeDays,
		Compress:    c.Logging.Compress,
	}
}
