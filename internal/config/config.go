package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"GO_ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"` // comma separated

	// Redis (cache, shared presence)
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Realtime
	SocketRequireToken bool   `mapstructure:"SOCKET_REQUIRE_TOKEN"`
	PresenceBackend    string `mapstructure:"PRESENCE_BACKEND"` // memory | redis

	// Recommendations
	RecommendationCacheTTL time.Duration `mapstructure:"RECOMMENDATION_CACHE_TTL"`
	LocaleFile             string        `mapstructure:"LOCALE_FILE"`

	// Soft-deleted message retention
	RetentionEnabled bool          `mapstructure:"MESSAGE_RETENTION_ENABLED"`
	RetentionCron    string        `mapstructure:"MESSAGE_RETENTION_CRON"`
	RetentionPeriod  time.Duration `mapstructure:"MESSAGE_RETENTION_PERIOD"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

var AppConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SOCKET_REQUIRE_TOKEN", false)
	v.SetDefault("PRESENCE_BACKEND", "memory")
	v.SetDefault("RECOMMENDATION_CACHE_TTL", "60s")
	v.SetDefault("MESSAGE_RETENTION_ENABLED", false)
	v.SetDefault("MESSAGE_RETENTION_CRON", "0 3 * * *")
	v.SetDefault("MESSAGE_RETENTION_PERIOD", "720h")
	v.SetDefault("METRICS_ENABLED", true)
}

// Load reads configuration from the given .env file (optional) and the environment.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "CORS_ORIGINS", "REDIS_PASSWORD", "LOCALE_FILE"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig() {
	cfg, err := Load(".env")
	if err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
	AppConfig = cfg
}

// AllowedOrigins returns the frontend URL plus any extra CORS origins.
func (c *Config) AllowedOrigins() []string {
	origins := []string{}
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
