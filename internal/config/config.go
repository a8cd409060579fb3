package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	// 全站 Basic Auth，/health 免认证；两者都配置才启用
	BasicAuthUser string
	BasicAuthPass string

	// 采集任务
	JobID           string
	IntervalMinutes int
	StartupDelay    time.Duration
	Workers         int
	SourcesFile     string
	Sources         []SourceConfig

	// 推理服务（Hugging Face text-classification 协议）
	InferenceBaseURL string
	InferenceToken   string
	InferenceRPS     float64
	InferenceTimeout time.Duration
	FakeNewsModel    string
	SentimentModel   string

	// ai_reasoning，可选
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// SourceConfig 描述一个新闻源；Type 为 rss（默认）或 html
type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	MaxItems int    `yaml:"maxItems"`

	// 仅 html 源使用的 CSS 选择器
	ItemSelector    string `yaml:"itemSelector"`
	TitleSelector   string `yaml:"titleSelector"`
	LinkSelector    string `yaml:"linkSelector"`
	SummarySelector string `yaml:"summarySelector"`
}

const defaultMaxItems = 10

// DefaultSources 免费且提供 RSS 的几个新闻源
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "BBC", URL: "http://feeds.bbci.co.uk/news/rss.xml", Type: "rss", MaxItems: defaultMaxItems},
		{Name: "CNN", URL: "http://rss.cnn.com/rss/edition_world.rss", Type: "rss", MaxItems: defaultMaxItems},
		{Name: "AlJazeera", URL: "http://www.aljazeera.com/xml/rss/all.xml", Type: "rss", MaxItems: defaultMaxItems},
		{Name: "Yahoo", URL: "https://news.yahoo.com/rss/", Type: "rss", MaxItems: defaultMaxItems},
	}
}

func Load() *Config {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:          getEnv("APP_PORT", "8000"),
		PostgresDSN:      getEnv("POSTGRES_DSN", "host=localhost user=newsai password=newsai dbname=newsai port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		BasicAuthUser:    getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:    getEnv("APP_BASIC_PASS", ""),
		JobID:            getEnv("JOB_ID", "fetch_rss_job"),
		IntervalMinutes:  getEnvInt("FETCH_INTERVAL_MINUTES", 30),
		StartupDelay:     getEnvDuration("SCHEDULER_STARTUP_DELAY", 5*time.Second),
		Workers:          getEnvInt("PIPELINE_WORKERS", 4),
		SourcesFile:      getEnv("SOURCES_FILE", ""),
		InferenceBaseURL: getEnv("INFERENCE_BASE_URL", "https://api-inference.huggingface.co/models"),
		InferenceToken:   getEnv("INFERENCE_TOKEN", ""),
		InferenceRPS:     getEnvFloat("INFERENCE_RPS", 5),
		InferenceTimeout: getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second),
		FakeNewsModel:    getEnv("FAKE_NEWS_MODEL", "mrm8488/bert-tiny-finetuned-fake-news-detection"),
		SentimentModel:   getEnv("SENTIMENT_MODEL", "distilbert-base-uncased-finetuned-sst-2-english"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
	}

	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = 30
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	cfg.Sources = DefaultSources()
	if cfg.SourcesFile != "" {
		sources, err := LoadSources(cfg.SourcesFile)
		if err != nil {
			log.Printf("config: cannot load sources from %s: %v (falling back to defaults)", cfg.SourcesFile, err)
		} else if len(sources) > 0 {
			cfg.Sources = sources
		}
	}

	log.Printf("config loaded: port=%s interval=%dm workers=%d sources=%d", cfg.AppPort, cfg.IntervalMinutes, cfg.Workers, len(cfg.Sources))
	return cfg
}

// Interval 采集周期
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ModelURL 拼接推理服务地址与模型名
func (c *Config) ModelURL(model string) string {
	if c.InferenceBaseURL == "" || model == "" {
		return ""
	}
	return strings.TrimRight(c.InferenceBaseURL, "/") + "/" + strings.TrimLeft(model, "/")
}

// LoadSources 从 YAML 文件读取新闻源列表，格式为 {sources: [...]}
func LoadSources(path string) ([]SourceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file struct {
		Sources []SourceConfig `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}

	out := make([]SourceConfig, 0, len(file.Sources))
	for _, s := range file.Sources {
		s.Name = strings.TrimSpace(s.Name)
		s.URL = strings.TrimSpace(s.URL)
		if s.Name == "" || s.URL == "" {
			continue
		}
		if s.Type == "" {
			s.Type = "rss"
		}
		if s.MaxItems <= 0 {
			s.MaxItems = defaultMaxItems
		}
		out = append(out, s)
	}
	return out, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %v", key, v, def)
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
