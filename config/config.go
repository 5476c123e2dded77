package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds every setting the server, the crawler and the CLI need.
// It is built once by LoadConfig and passed to constructors explicitly.
type Config struct {
	Port        string
	DataDir     string
	DataFile    string
	SessionFile string
	FrontendDir string

	// Proxy egress for the AI provider. The scraper never uses it.
	ProxyURL      string
	ProxyCheckURL string

	AIProvider   string
	AIModel      string
	GeminiAPIKey string

	BrowserDrivers []string
	Headless       bool
	CrawlTimeout   time.Duration

	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	CacheTTL      time.Duration

	AWSRegion     string
	AWSBucketName string

	SendGridAPIKey string
	NotifyEmail    string

	JWTSecret          string
	AccessPasswordHash string

	LogLevel string
	LogJSON  bool
}

// EnvPrefix namespaces environment variables. Unprefixed names work too.
const EnvPrefix = "FISHSCOUT"

var envKeys = []string{
	"port", "data_dir", "data_file", "session_file", "frontend_dir",
	"proxy_url", "proxy_check_url", "ai_provider", "ai_model", "gemini_api_key",
	"browser_driver", "headless", "crawl_timeout", "mongo_uri", "mongo_database",
	"redis_addr", "cache_ttl", "aws_region", "aws_bucket_name", "sendgrid_api_key",
	"notify_email", "jwt_secret", "access_password_hash", "log_level", "log_json",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("data_dir", ".")
	v.SetDefault("data_file", "temp_data.json")
	v.SetDefault("session_file", "browser_state.json")
	v.SetDefault("frontend_dir", "frontend")
	v.SetDefault("proxy_url", "http://127.0.0.1:7890")
	v.SetDefault("proxy_check_url", "http://ip-api.com/json/")
	v.SetDefault("ai_provider", "gemini")
	v.SetDefault("ai_model", "")
	v.SetDefault("browser_driver", "chromedp")
	v.SetDefault("headless", false)
	v.SetDefault("crawl_timeout", 300*time.Second)
	v.SetDefault("mongo_database", "fishscout")
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// LoadConfig loads environment variables from .env file and resolves
// them, together with any flags bound on v, into a Config.
func LoadConfig(v *viper.Viper) *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using default values or system environment variables")
	}

	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.AllowEmptyEnv(true)
	for _, key := range envKeys {
		upper := strings.ToUpper(key)
		_ = v.BindEnv(key, EnvPrefix+"_"+upper, upper)
	}

	return &Config{
		Port:               v.GetString("port"),
		DataDir:            v.GetString("data_dir"),
		DataFile:           v.GetString("data_file"),
		SessionFile:        v.GetString("session_file"),
		FrontendDir:        v.GetString("frontend_dir"),
		ProxyURL:           v.GetString("proxy_url"),
		ProxyCheckURL:      v.GetString("proxy_check_url"),
		AIProvider:         v.GetString("ai_provider"),
		AIModel:            v.GetString("ai_model"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		BrowserDrivers:     splitList(v.GetString("browser_driver")),
		Headless:           v.GetBool("headless"),
		CrawlTimeout:       v.GetDuration("crawl_timeout"),
		MongoURI:           v.GetString("mongo_uri"),
		MongoDatabase:      v.GetString("mongo_database"),
		RedisAddr:          v.GetString("redis_addr"),
		CacheTTL:           v.GetDuration("cache_ttl"),
		AWSRegion:          v.GetString("aws_region"),
		AWSBucketName:      v.GetString("aws_bucket_name"),
		SendGridAPIKey:     v.GetString("sendgrid_api_key"),
		NotifyEmail:        v.GetString("notify_email"),
		JWTSecret:          v.GetString("jwt_secret"),
		AccessPasswordHash: v.GetString("access_password_hash"),
		LogLevel:           v.GetString("log_level"),
		LogJSON:            v.GetBool("log_json"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
