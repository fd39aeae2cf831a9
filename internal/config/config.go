package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "Asia/Tokyo"
	fallbackTimezone = "UTC"

	configPathEnv     = "DAILY_DIGEST_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	openAIKeyEnv      = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	openAIBaseURLEnv  = "OPENAI_BASE_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Topic         string             `yaml:"topic"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Summary       SummaryConfig      `yaml:"summary"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	ML            MLConfig           `yaml:"ml"`
	Browser       BrowserConfig      `yaml:"browser"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Web           WebConfig          `yaml:"web"`
	Sites         []SiteConfig       `yaml:"sites"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines when the batch runs and which civil date it belongs to.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ArchiveConfig locates the template and the published documents.
type ArchiveConfig struct {
	TemplatePath string `yaml:"templatePath"`
	LatestPath   string `yaml:"latestPath"`
	Dir          string `yaml:"dir"`
	// BaseURL prefixes dated document links; empty means links relative to the site root.
	BaseURL string `yaml:"baseUrl"`
}

// PipelineConfig bounds the fan-out of the fetch and enrich phases.
type PipelineConfig struct {
	FetchConcurrency   int `yaml:"fetchConcurrency"`
	SummaryConcurrency int `yaml:"summaryConcurrency"`
}

// SummaryConfig chooses the text generator and the personas it speaks with.
type SummaryConfig struct {
	Provider       string        `yaml:"provider"`
	Timeout        time.Duration `yaml:"timeout"`
	NewsPersona    string        `yaml:"newsPersona"`
	PaperPersona   string        `yaml:"paperPersona"`
	ImpactAudience string        `yaml:"impactAudience"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	BaseURL    string        `yaml:"baseUrl"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"apiKey"`
	MaxRetries int           `yaml:"maxRetries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MLConfig describes a self-hosted inference endpoint.
type MLConfig struct {
	InferenceURL string        `yaml:"inferenceUrl"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout"`
}

// BrowserConfig tunes page loading.
type BrowserConfig struct {
	NavigationTimeout time.Duration `yaml:"navigationTimeout"`
	SelectorTimeout   time.Duration `yaml:"selectorTimeout"`
	FeedTimeout       time.Duration `yaml:"feedTimeout"`
	UserAgent         string        `yaml:"userAgent"`
	Headless          *bool         `yaml:"headless"`
}

// IsHeadless defaults to true.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// DatabaseConfig describes the optional run-history database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Enabled reports whether run history should be recorded.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIURL   string `yaml:"apiUrl"`
}

// Enabled reports whether both token and chat are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// WebConfig configures the preview server.
type WebConfig struct {
	Addr string `yaml:"addr"`
	// SiteURL is the public address of the latest document, linked from notifications.
	SiteURL string `yaml:"siteUrl"`
}

// SiteConfig describes a single source with its scanner strategy.
//
// Scanner is one of newssite, feed, journal or arxiv. Journal sites list their
// sub-sources under Sources and share the journal's Kind.
type SiteConfig struct {
	Name          string           `yaml:"name"`
	Scanner       string           `yaml:"scanner"`
	Kind          string           `yaml:"kind"`
	Loader        string           `yaml:"loader"`
	URL           string           `yaml:"url"`
	BaseURL       string           `yaml:"baseUrl"`
	ItemSelector  string           `yaml:"itemSelector"`
	TitleSelector string           `yaml:"titleSelector"`
	LinkSelector  string           `yaml:"linkSelector"`
	WaitSelector  string           `yaml:"waitSelector"`
	Keywords      []string         `yaml:"keywords"`
	MaxItems      int              `yaml:"maxItems"`
	Categories    []CategoryConfig `yaml:"categories"`
	Sources       []SiteConfig     `yaml:"sources"`
}

// CategoryConfig holds listing endpoints (e.g., arXiv category URLs).
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to the DAILY_DIGEST_CONFIG variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultSites()
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.ChatGPT.BaseURL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, fallbackTimezone)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	setString(&base.Logging.Level, override.Logging.Level)
	setString(&base.Logging.Format, override.Logging.Format)
	setString(&base.Topic, override.Topic)

	setString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	setString(&base.Scheduler.Timezone, override.Scheduler.Timezone)

	setString(&base.Archive.TemplatePath, override.Archive.TemplatePath)
	setString(&base.Archive.LatestPath, override.Archive.LatestPath)
	setString(&base.Archive.Dir, override.Archive.Dir)
	setString(&base.Archive.BaseURL, override.Archive.BaseURL)

	setInt(&base.Pipeline.FetchConcurrency, override.Pipeline.FetchConcurrency)
	setInt(&base.Pipeline.SummaryConcurrency, override.Pipeline.SummaryConcurrency)

	setString(&base.Summary.Provider, override.Summary.Provider)
	setDuration(&base.Summary.Timeout, override.Summary.Timeout)
	setString(&base.Summary.NewsPersona, override.Summary.NewsPersona)
	setString(&base.Summary.PaperPersona, override.Summary.PaperPersona)
	setString(&base.Summary.ImpactAudience, override.Summary.ImpactAudience)

	setString(&base.ChatGPT.BaseURL, override.ChatGPT.BaseURL)
	setString(&base.ChatGPT.Model, override.ChatGPT.Model)
	setString(&base.ChatGPT.APIKey, override.ChatGPT.APIKey)
	setInt(&base.ChatGPT.MaxRetries, override.ChatGPT.MaxRetries)
	setDuration(&base.ChatGPT.Timeout, override.ChatGPT.Timeout)

	setString(&base.ML.InferenceURL, override.ML.InferenceURL)
	setString(&base.ML.APIKey, override.ML.APIKey)
	setDuration(&base.ML.Timeout, override.ML.Timeout)

	setDuration(&base.Browser.NavigationTimeout, override.Browser.NavigationTimeout)
	setDuration(&base.Browser.SelectorTimeout, override.Browser.SelectorTimeout)
	setDuration(&base.Browser.FeedTimeout, override.Browser.FeedTimeout)
	setString(&base.Browser.UserAgent, override.Browser.UserAgent)
	if override.Browser.Headless != nil {
		base.Browser.Headless = override.Browser.Headless
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
		if base.Database.Driver == "" {
			base.Database.Driver = defaultConfig().Database.Driver
		}
	}

	setString(&base.Notifications.Telegram.BotToken, override.Notifications.Telegram.BotToken)
	setString(&base.Notifications.Telegram.ChatID, override.Notifications.Telegram.ChatID)
	setString(&base.Notifications.Telegram.APIURL, override.Notifications.Telegram.APIURL)

	setString(&base.Web.Addr, override.Web.Addr)
	setString(&base.Web.SiteURL, override.Web.SiteURL)

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Topic:     "医療DX・医療AI",
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone},
		Archive: ArchiveConfig{
			TemplatePath: "templates/index.html.tmpl",
			LatestPath:   "public/index.html",
			Dir:          "public/archive",
			BaseURL:      "/archive",
		},
		Pipeline: PipelineConfig{FetchConcurrency: 4, SummaryConcurrency: 4},
		Summary: SummaryConfig{
			Provider:       "chatgpt",
			Timeout:        60 * time.Second,
			NewsPersona:    "あなたは優秀な医療IT専門の編集者です。",
			PaperPersona:   "あなたは医学論文をわかりやすく伝えるサイエンスライターです。",
			ImpactAudience: "マーケター",
		},
		ChatGPT: ChatGPTConfig{
			Model:      "gpt-4o",
			MaxRetries: 2,
			Timeout:    60 * time.Second,
		},
		ML:       MLConfig{Timeout: 30 * time.Second},
		Browser:  BrowserConfig{NavigationTimeout: 60 * time.Second, SelectorTimeout: 10 * time.Second, FeedTimeout: 30 * time.Second, UserAgent: "DailyDigest/1.0"},
		Database: DatabaseConfig{Driver: "postgres"},
		Web:      WebConfig{Addr: ":8080"},
		Sites:    defaultSites(),
	}
}

func defaultSites() []SiteConfig {
	return []SiteConfig{
		{
			Name:          "日本経済新聞",
			Scanner:       "newssite",
			Kind:          "news",
			Loader:        "chrome",
			URL:           "https://www.nikkei.com/search?keyword=%E5%8C%BB%E7%99%82DX",
			BaseURL:       "https://www.nikkei.com",
			ItemSelector:  "article",
			TitleSelector: "h3, a[title]",
			LinkSelector:  "a",
			WaitSelector:  "article",
			MaxItems:      5,
		},
		{
			Name:          "PR TIMES",
			Scanner:       "newssite",
			Kind:          "news",
			Loader:        "chrome",
			URL:           "https://prtimes.jp/main/html/searchbiscate/busi_cate_id/025/lv2/47/",
			BaseURL:       "https://prtimes.jp",
			ItemSelector:  ".item",
			TitleSelector: ".title",
			LinkSelector:  "a.link",
			Keywords:      []string{"AI", "人工知能"},
			MaxItems:      5,
		},
		{
			Name:    "Journals",
			Scanner: "journal",
			Kind:    "paper",
			Sources: []SiteConfig{
				{Name: "Nature Medicine", Scanner: "feed", URL: "https://www.nature.com/nm.rss", MaxItems: 3},
				{Name: "npj Digital Medicine", Scanner: "feed", URL: "https://www.nature.com/npjdigitalmed.rss", MaxItems: 3},
				{
					Name:          "The Lancet Digital Health",
					Scanner:       "newssite",
					Loader:        "chrome",
					URL:           "https://www.thelancet.com/journals/landig/issue/current",
					BaseURL:       "https://www.thelancet.com",
					ItemSelector:  ".articleCitation",
					TitleSelector: ".articleCitation__title, h4",
					LinkSelector:  "a",
					WaitSelector:  ".articleCitation",
					MaxItems:      3,
				},
			},
		},
	}
}
