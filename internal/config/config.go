package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	AI       AI       `mapstructure:"ai"`
	Search   Search   `mapstructure:"search"`
	Research Research `mapstructure:"research"`
	Report   Report   `mapstructure:"report"`
	Output   Output   `mapstructure:"output"`
	Logging  Logging  `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug bool `mapstructure:"debug"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// Search holds search provider configuration
type Search struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	MaxResults      int             `mapstructure:"max_results"`
	Timeout         string          `mapstructure:"timeout"`
	Providers       SearchProviders `mapstructure:"providers"`
}

// SearchProviders holds configuration for all search providers
type SearchProviders struct {
	Firecrawl  FirecrawlConfig  `mapstructure:"firecrawl"`
	DuckDuckGo DuckDuckGoConfig `mapstructure:"duckduckgo"`
}

// FirecrawlConfig holds Firecrawl search/scrape configuration
type FirecrawlConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// DuckDuckGoConfig holds DuckDuckGo configuration
type DuckDuckGoConfig struct {
	RateLimit string `mapstructure:"rate_limit"`
}

// Research holds research traversal configuration
type Research struct {
	Breadth      int     `mapstructure:"breadth"`
	Depth        int     `mapstructure:"depth"`
	Workers      int     `mapstructure:"workers"`
	MaxSources   int     `mapstructure:"max_sources"`
	MaxFindings  int     `mapstructure:"max_findings"`
	QualityFloor float64 `mapstructure:"quality_floor"`
	Timeout      string  `mapstructure:"timeout"`
}

// Report holds report planning configuration
type Report struct {
	DefaultType  string `mapstructure:"default_type"`
	DefaultPages int    `mapstructure:"default_pages"`
	MaxAttempts  int    `mapstructure:"max_attempts"`
	Company      string `mapstructure:"company"`
	Author       string `mapstructure:"author"`
	LogoPath     string `mapstructure:"logo_path"`
}

// Output holds output configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

// Logging holds logging configuration
type Logging struct {
	Level string `mapstructure:"level"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".reportforge")
		viper.SetConfigType("yaml")
	}

	// Set defaults
	setDefaults()

	// Bind environment variables
	bindEnvironmentVariables()

	// Enable automatic environment variable reading
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal into struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Apply post-processing
	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)

	// AI defaults
	viper.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.max_tokens", 16384)
	viper.SetDefault("ai.gemini.temperature", 0.3)

	// Search defaults. The default provider is resolved in post-processing:
	// Firecrawl when a key is configured, DuckDuckGo otherwise.
	viper.SetDefault("search.max_results", 3)
	viper.SetDefault("search.timeout", "30s")
	viper.SetDefault("search.providers.firecrawl.base_url", "https://api.firecrawl.dev")
	viper.SetDefault("search.providers.firecrawl.requests_per_minute", 50)
	viper.SetDefault("search.providers.duckduckgo.rate_limit", "2s")

	// Research defaults
	viper.SetDefault("research.breadth", 4)
	viper.SetDefault("research.depth", 2)
	viper.SetDefault("research.workers", 3)
	viper.SetDefault("research.max_sources", 20)
	viper.SetDefault("research.max_findings", 15)
	viper.SetDefault("research.quality_floor", 0.6)
	viper.SetDefault("research.timeout", "120s")

	// Report defaults
	viper.SetDefault("report.default_type", "market_research")
	viper.SetDefault("report.default_pages", 12)
	viper.SetDefault("report.max_attempts", 3)
	viper.SetDefault("report.company", "Reportforge")
	viper.SetDefault("report.author", "Reportforge")

	// Output defaults
	viper.SetDefault("output.directory", "reports")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("ai.gemini.model", []string{
		"GEMINI_MODEL_VERSION",
	})

	// Firecrawl
	bindEnvKeys("search.providers.firecrawl.api_key", []string{
		"FIRECRAWL_API_KEY",
	})

	bindEnvKeys("search.default_provider", []string{
		"SEARCH_PROVIDER",
		"DEFAULT_SEARCH_PROVIDER",
	})

	// Report branding
	bindEnvKeys("report.company", []string{
		"ORGANIZATION",
		"COMPANY_NAME",
	})

	bindEnvKeys("report.author", []string{
		"AUTHOR",
	})

	bindEnvKeys("report.logo_path", []string{
		"COMPANY_LOGO_PATH",
	})

	// General settings
	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"REPORTFORGE_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.Output.Directory != "" {
		config.Output.Directory = expandPath(config.Output.Directory)
	}

	if config.Search.DefaultProvider == "" {
		if config.Search.Providers.Firecrawl.APIKey != "" {
			config.Search.DefaultProvider = "firecrawl"
		} else {
			config.Search.DefaultProvider = "duckduckgo"
		}
	}

	// Validate durations
	durations := map[string]string{
		"ai.gemini.timeout":                      config.AI.Gemini.Timeout,
		"search.timeout":                         config.Search.Timeout,
		"search.providers.duckduckgo.rate_limit": config.Search.Providers.DuckDuckGo.RateLimit,
		"research.timeout":                       config.Research.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	if config.Search.DefaultProvider != "" {
		switch config.Search.DefaultProvider {
		case "firecrawl":
			if config.Search.Providers.Firecrawl.APIKey == "" {
				errors = append(errors, "Firecrawl requires an API key. Set FIRECRAWL_API_KEY environment variable or search.providers.firecrawl.api_key in config file")
			}
		case "duckduckgo", "mock":
			// No credentials needed for these providers
		default:
			errors = append(errors, fmt.Sprintf("Unknown search provider: %s. Supported: firecrawl, duckduckgo, mock", config.Search.DefaultProvider))
		}
	}

	if config.Research.Breadth <= 0 || config.Research.Depth <= 0 {
		errors = append(errors, "research.breadth and research.depth must be positive")
	}

	if config.Report.DefaultPages <= 0 {
		errors = append(errors, "report.default_pages must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// GeminiTimeout returns the parsed Gemini request timeout.
func (c *Config) GeminiTimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Gemini.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// SearchTimeout returns the parsed per-search timeout.
func (c *Config) SearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ResearchTimeout returns the parsed whole-traversal timeout.
func (c *Config) ResearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Research.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
