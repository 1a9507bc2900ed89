package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temcen/recoforge/pkg/models"
)

// Config is the full configuration surface of the recommendation core.
// Sections beyond Database/Cache/Feature/Algorithm/Queue/ANN wire the
// ambient stack: server, logging, monitoring.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Feature    FeatureConfig    `mapstructure:"feature"`
	Algorithm  AlgorithmConfig  `mapstructure:"algorithm"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Latency    LatencyConfig    `mapstructure:"latency"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MinConnections int           `mapstructure:"min_connections"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	// ANNTimeout bounds vector-index search calls specifically (find_similar_*,
	// read_trending); spec §5 budgets these separately from a plain pool
	// acquire (150ms vs 50ms under the default 500ms request deadline).
	ANNTimeout time.Duration `mapstructure:"ann_timeout"`
}

// LatencyConfig carries the per-request deadline tree of spec §5: an overall
// budget the service enforces around the whole request, independent of the
// child deadlines each downstream call (DB, ANN, cache) enforces on itself.
type LatencyConfig struct {
	RequestDeadline time.Duration `mapstructure:"request_deadline"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	InteractionsTopic string   `mapstructure:"interactions_topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FeatureConfig tunes FeatureExtractor (C1).
type FeatureConfig struct {
	Dimension int `mapstructure:"dimension"`
	// TextTFIDF is loaded but not read: FeatureExtractor always TF-IDF-encodes
	// text attributes, whatever its value.
	TextTFIDF bool `mapstructure:"text_tfidf_enabled"`
}

// AlgorithmConfig tunes C4-C8 and the VectorStore's ANN index.
type AlgorithmConfig struct {
	ColdStartThreshold  int             `mapstructure:"cold_start_threshold"`
	SimilarityThreshold float64         `mapstructure:"similarity_threshold"`
	Hybrid              HybridConfig    `mapstructure:"hybrid"`
	Trending            TrendingConfig  `mapstructure:"trending"`
	ANN                 ANNConfig       `mapstructure:"ann"`
	Tiers               TierWeightTable `mapstructure:"tiers"`
}

type HybridConfig struct {
	WCollab  float64 `mapstructure:"w_collab"`
	WContent float64 `mapstructure:"w_content"`
}

type TrendingConfig struct {
	WindowDefault   time.Duration `mapstructure:"window_default"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	// RetentionWindow is loaded but not read: trending rows are not evicted by
	// age; a refresh replaces only the rows with its own window start.
	RetentionWindow time.Duration `mapstructure:"retention_window"`
}

type ANNConfig struct {
	M              int `mapstructure:"m"`
	EfConstruction int `mapstructure:"ef_construction"`
	EfSearch       int `mapstructure:"ef_search"`
}

// TierWeightTable holds the default (w_collab, w_content) pair used by
// HybridBlender per user tier when the caller doesn't supply explicit
// weights (SPEC_FULL §12).
type TierWeightTable struct {
	NewUser  HybridConfig `mapstructure:"new_user"`
	Active   HybridConfig `mapstructure:"active"`
	Power    HybridConfig `mapstructure:"power"`
	Inactive HybridConfig `mapstructure:"inactive"`
}

// CacheConfig tunes CacheLayer (C3).
type CacheConfig struct {
	UserRecsTTL      time.Duration `mapstructure:"user_recs_ttl"`
	SimilarEntityTTL time.Duration `mapstructure:"similar_entity_ttl"`
	TrendingTTL      time.Duration `mapstructure:"trending_ttl"`
	NegativeTTL      time.Duration `mapstructure:"negative_ttl"`
}

// QueueConfig tunes UserProfileUpdater (C9).
type QueueConfig struct {
	Depth             int           `mapstructure:"depth"`
	LatencyBudget     time.Duration `mapstructure:"latency_budget"`
	InteractionWindow time.Duration `mapstructure:"interaction_window"`
	ProfileHalfLife   time.Duration `mapstructure:"profile_half_life"`
	ContentHalfLife   time.Duration `mapstructure:"content_half_life"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        string `mapstructure:"port"`
	MetricsPath string `mapstructure:"metrics_path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces spec §6's configuration validation rules, returning a
// ConfigError (fatal at startup) on the first violation found.
func (c *Config) Validate() error {
	if err := c.Algorithm.Hybrid.validate("algorithm.hybrid"); err != nil {
		return err
	}
	for name, t := range map[string]HybridConfig{
		"algorithm.tiers.new_user": c.Algorithm.Tiers.NewUser,
		"algorithm.tiers.active":   c.Algorithm.Tiers.Active,
		"algorithm.tiers.power":    c.Algorithm.Tiers.Power,
		"algorithm.tiers.inactive": c.Algorithm.Tiers.Inactive,
	} {
		if err := t.validate(name); err != nil {
			return err
		}
	}
	if c.Algorithm.SimilarityThreshold < 0 || c.Algorithm.SimilarityThreshold > 1 {
		return &models.ConfigError{Field: "algorithm.similarity_threshold", Detail: "must be in [0,1]"}
	}
	if c.Database.MinConnections > c.Database.MaxConnections {
		return &models.ConfigError{Field: "database.min_connections", Detail: "must be <= max_connections"}
	}
	if c.Feature.Dimension <= 0 {
		return &models.ConfigError{Field: "feature.dimension", Detail: "must be positive"}
	}
	return nil
}

func (h HybridConfig) validate(field string) error {
	sum := h.WCollab + h.WContent
	if sum < 0.999 || sum > 1.001 {
		return &models.ConfigError{Field: field, Detail: "w_collab + w_content must sum to 1.0"}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	viper.SetDefault("database.min_connections", 2)
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")
	viper.SetDefault("database.acquire_timeout", "50ms")
	viper.SetDefault("database.ann_timeout", "150ms")

	viper.SetDefault("latency.request_deadline", "500ms")

	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "10ms")

	viper.SetDefault("kafka.interactions_topic", "interactions")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("feature.dimension", 512)
	viper.SetDefault("feature.text_tfidf_enabled", true)

	viper.SetDefault("algorithm.cold_start_threshold", models.ColdStartThresholdDefault)
	viper.SetDefault("algorithm.similarity_threshold", 0.5)
	viper.SetDefault("algorithm.hybrid.w_collab", 0.5)
	viper.SetDefault("algorithm.hybrid.w_content", 0.5)

	viper.SetDefault("algorithm.tiers.new_user.w_collab", 0.2)
	viper.SetDefault("algorithm.tiers.new_user.w_content", 0.8)
	viper.SetDefault("algorithm.tiers.active.w_collab", 0.5)
	viper.SetDefault("algorithm.tiers.active.w_content", 0.5)
	viper.SetDefault("algorithm.tiers.power.w_collab", 0.7)
	viper.SetDefault("algorithm.tiers.power.w_content", 0.3)
	viper.SetDefault("algorithm.tiers.inactive.w_collab", 0.3)
	viper.SetDefault("algorithm.tiers.inactive.w_content", 0.7)

	viper.SetDefault("algorithm.trending.window_default", "168h")
	viper.SetDefault("algorithm.trending.refresh_interval", "5m")
	viper.SetDefault("algorithm.trending.retention_window", "720h")

	viper.SetDefault("algorithm.ann.m", 16)
	viper.SetDefault("algorithm.ann.ef_construction", 64)
	viper.SetDefault("algorithm.ann.ef_search", 40)

	viper.SetDefault("cache.user_recs_ttl", "5m")
	viper.SetDefault("cache.similar_entity_ttl", "10m")
	viper.SetDefault("cache.trending_ttl", "1m")
	viper.SetDefault("cache.negative_ttl", "30s")

	viper.SetDefault("queue.depth", 1000)
	viper.SetDefault("queue.latency_budget", "5s")
	viper.SetDefault("queue.interaction_window", "4320h") // 180 days
	viper.SetDefault("queue.profile_half_life", "1440h")  // 60 days
	viper.SetDefault("queue.content_half_life", "720h")   // 30 days

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.port", "9090")
	viper.SetDefault("monitoring.metrics_path", "/metrics")
}
