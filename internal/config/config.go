package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the quest API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Providers ProvidersConfig `yaml:"providers"`
	Summarize SummarizeConfig `yaml:"summarize"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Thread    ThreadConfig    `yaml:"thread"`
	News      NewsConfig      `yaml:"news"`
	Geo       GeoConfig       `yaml:"geo"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // covers the whole streamed answer
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	IntentModel   string  `yaml:"intent_model"`
	SummaryModel  string  `yaml:"summary_model"`
	FollowUpModel string  `yaml:"follow_up_model"`
	IntentTemp    float32 `yaml:"intent_temperature"`
	SummaryTemp   float32 `yaml:"summary_temperature"`
	FollowUpTemp  float32 `yaml:"follow_up_temperature"`
	MaxAttempts   int     `yaml:"max_attempts"`
	TimeoutSec    int     `yaml:"timeout_sec"`
}

// ProviderConfig holds settings shared by the HTTP search providers.
type ProviderConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ProvidersConfig groups external provider settings.
type ProvidersConfig struct {
	Brave       ProviderConfig `yaml:"brave"`
	Yelp        ProviderConfig `yaml:"yelp"`
	Wikidata    WikidataConfig `yaml:"wikidata"`
	IPGeo       ProviderConfig `yaml:"ipgeo"`
	OpenWeather ProviderConfig `yaml:"openweather"`
	GNews       GNewsConfig    `yaml:"gnews"`
}

// WikidataConfig holds knowledge-graph settings.
type WikidataConfig struct {
	APIURL     string `yaml:"api_url"`
	SPARQLURL  string `yaml:"sparql_url"`
	Language   string `yaml:"language"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// GNewsConfig holds news aggregator feed settings.
type GNewsConfig struct {
	BaseURL    string `yaml:"base_url"`
	Language   string `yaml:"language"`
	Country    string `yaml:"country"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SummarizeConfig controls answer synthesis.
type SummarizeConfig struct {
	CrawlSources int `yaml:"crawl_sources"` // top web/news sources crawled before summarizing; 0 disables
}

// CrawlConfig controls page fetching.
type CrawlConfig struct {
	PageTimeoutMs    int    `yaml:"page_timeout_ms"`
	ArticleTimeoutMs int    `yaml:"article_timeout_ms"`
	MaxBytes         int64  `yaml:"max_bytes"`
	UserAgent        string `yaml:"user_agent"`
}

// ThreadConfig controls thread persistence.
type ThreadConfig struct {
	PersistTimeoutSec int `yaml:"persist_timeout_sec"`
}

// NewsConfig controls the news crawler.
type NewsConfig struct {
	Enabled       bool     `yaml:"enabled"`
	TopSchedule   string   `yaml:"top_schedule"`
	TopicSchedule string   `yaml:"topic_schedule"`
	Topics        []string `yaml:"topics"`
	Concurrency   int      `yaml:"concurrency"`
	FeedSize      int      `yaml:"feed_size"`
}

// GeoConfig controls caller address resolution.
type GeoConfig struct {
	FixedIP       string `yaml:"fixed_ip"` // overrides the caller address, for local runs
	TrustForwards bool   `yaml:"trust_forwarded_for"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config data, expanding env variables and applying defaults.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// DefaultTopics are the aggregator sections crawled when news.topics is empty.
var DefaultTopics = []string{
	"WORLD", "NATION", "BUSINESS", "TECHNOLOGY",
	"ENTERTAINMENT", "SPORTS", "SCIENCE", "HEALTH",
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "quest:"
	}

	c.applyLLMDefaults()
	c.applyProviderDefaults()

	if c.Summarize.CrawlSources < 0 {
		c.Summarize.CrawlSources = 0
	}
	if c.Crawl.PageTimeoutMs <= 0 {
		c.Crawl.PageTimeoutMs = 1500
	}
	if c.Crawl.ArticleTimeoutMs <= 0 {
		c.Crawl.ArticleTimeoutMs = 10000
	}
	if c.Crawl.MaxBytes <= 0 {
		c.Crawl.MaxBytes = 5 << 20
	}
	if c.Crawl.UserAgent == "" {
		c.Crawl.UserAgent = "Googlebot-News"
	}
	if c.Thread.PersistTimeoutSec <= 0 {
		c.Thread.PersistTimeoutSec = 5
	}
	if c.News.TopSchedule == "" {
		c.News.TopSchedule = "@every 30m"
	}
	if c.News.TopicSchedule == "" {
		c.News.TopicSchedule = "@every 30m"
	}
	if len(c.News.Topics) == 0 {
		c.News.Topics = append([]string(nil), DefaultTopics...)
	}
	if c.News.Concurrency <= 0 {
		c.News.Concurrency = 8
	}
	if c.News.FeedSize <= 0 {
		c.News.FeedSize = 10
	}
}

func (c *Config) applyLLMDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.IntentModel == "" {
		c.LLM.IntentModel = "gpt-3.5-turbo-0125"
	}
	if c.LLM.SummaryModel == "" {
		c.LLM.SummaryModel = c.LLM.IntentModel
	}
	if c.LLM.FollowUpModel == "" {
		c.LLM.FollowUpModel = c.LLM.IntentModel
	}
	if c.LLM.IntentTemp <= 0 {
		c.LLM.IntentTemp = 0.2
	}
	if c.LLM.SummaryTemp <= 0 {
		c.LLM.SummaryTemp = 0.5
	}
	if c.LLM.FollowUpTemp <= 0 {
		c.LLM.FollowUpTemp = 0.1
	}
	if c.LLM.MaxAttempts <= 0 {
		c.LLM.MaxAttempts = 5
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
}

func (c *Config) applyProviderDefaults() {
	p := &c.Providers
	defaultProvider(&p.Brave, "https://api.search.brave.com", 10)
	defaultProvider(&p.Yelp, "https://api.yelp.com", 10)
	defaultProvider(&p.IPGeo, "https://api.ipgeolocation.io", 5)
	defaultProvider(&p.OpenWeather, "https://api.openweathermap.org", 5)

	if p.Wikidata.APIURL == "" {
		p.Wikidata.APIURL = "https://www.wikidata.org/w/api.php"
	}
	if p.Wikidata.SPARQLURL == "" {
		p.Wikidata.SPARQLURL = "https://query.wikidata.org/sparql"
	}
	if p.Wikidata.Language == "" {
		p.Wikidata.Language = "en"
	}
	if p.Wikidata.TimeoutSec <= 0 {
		p.Wikidata.TimeoutSec = 10
	}

	if p.GNews.BaseURL == "" {
		p.GNews.BaseURL = "https://news.google.com"
	}
	if p.GNews.Language == "" {
		p.GNews.Language = "en"
	}
	if p.GNews.Country == "" {
		p.GNews.Country = "US"
	}
	if p.GNews.TimeoutSec <= 0 {
		p.GNews.TimeoutSec = 15
	}
}

func defaultProvider(p *ProviderConfig, baseURL string, timeoutSec int) {
	if p.BaseURL == "" {
		p.BaseURL = baseURL
	}
	if p.TimeoutSec <= 0 {
		p.TimeoutSec = timeoutSec
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.LLM.MaxAttempts > 10 {
		return fmt.Errorf("llm.max_attempts must be at most 10, got %d", c.LLM.MaxAttempts)
	}
	for _, topic := range c.News.Topics {
		if topic != strings.ToUpper(topic) {
			return fmt.Errorf("news.topics must be upper case, got %q", topic)
		}
		if topic == "LATEST" {
			return fmt.Errorf("news.topics must not contain the reserved topic %q", topic)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
