package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	MySQL   MySQLConfig    `mapstructure:"mysql"`
	Redis   RedisConfig    `mapstructure:"redis"`
	Lmstfy  LmstfyConfig   `mapstructure:"lmstfy"`
	Engine  EngineConfig   `mapstructure:"engine"`
	Workers []WorkerConfig `mapstructure:"workers"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

// EngineConfig 推荐引擎配置
// 挖掘阈值与分层边界均为外部可调参数，避免硬编码业务常量
type EngineConfig struct {
	// 挖掘参数（>1 视为百分比，<=1 视为分数）
	MinSupport       float64 `mapstructure:"min_support"`
	MinConfidence    float64 `mapstructure:"min_confidence"`
	MaxItemsetLength int     `mapstructure:"max_itemset_length"`

	// 订单价值分层（货币单位与业务侧一致）
	HighValueAmount   float64 `mapstructure:"high_value_amount"`
	MediumValueAmount float64 `mapstructure:"medium_value_amount"`

	// 商品价格分层（5 档）
	PriceHigh       float64 `mapstructure:"price_high"`
	PriceMediumHigh float64 `mapstructure:"price_medium_high"`
	PriceMedium     float64 `mapstructure:"price_medium"`
	PriceLowMedium  float64 `mapstructure:"price_low_medium"`

	// 库存分层（3 档）
	StockHigh   int `mapstructure:"stock_high"`
	StockMedium int `mapstructure:"stock_medium"`

	// 销量分层
	BestSellerSales int `mapstructure:"best_seller_sales"`
	PopularSales    int `mapstructure:"popular_sales"`

	// 类目关键词（大小写不敏感的子串匹配）
	TechKeywords    []string `mapstructure:"tech_keywords"`
	FashionKeywords []string `mapstructure:"fashion_keywords"`
	HomeKeywords    []string `mapstructure:"home_keywords"`

	// 个性化聚合：每个类目的候选数量
	CategoryFanoutLimit int `mapstructure:"category_fanout_limit"`

	// 批量刷新：参与刷新的头部类目数量
	RefreshTopCategories int `mapstructure:"refresh_top_categories"`

	// 推荐结果缓存 TTL
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name       string           `mapstructure:"name"`
	QueueName  string           `mapstructure:"queue_name"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// setEngineDefaults 设置引擎默认参数（与原有线上行为一致）
func setEngineDefaults(v *viper.Viper) {
	v.SetDefault("engine.min_support", 2.0)
	v.SetDefault("engine.min_confidence", 50.0)
	v.SetDefault("engine.max_itemset_length", 3)
	v.SetDefault("engine.high_value_amount", 10000.0)
	v.SetDefault("engine.medium_value_amount", 5000.0)
	v.SetDefault("engine.price_high", 5000.0)
	v.SetDefault("engine.price_medium_high", 2000.0)
	v.SetDefault("engine.price_medium", 1000.0)
	v.SetDefault("engine.price_low_medium", 500.0)
	v.SetDefault("engine.stock_high", 20)
	v.SetDefault("engine.stock_medium", 5)
	v.SetDefault("engine.best_seller_sales", 10)
	v.SetDefault("engine.popular_sales", 5)
	v.SetDefault("engine.tech_keywords", []string{"electronic", "tech", "gadget"})
	v.SetDefault("engine.fashion_keywords", []string{"fashion", "clothing", "wear"})
	v.SetDefault("engine.home_keywords", []string{"home", "decor", "furniture"})
	v.SetDefault("engine.category_fanout_limit", 5)
	v.SetDefault("engine.refresh_top_categories", 5)
	v.SetDefault("engine.cache_ttl", time.Hour)
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setEngineDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// DefaultEngine 返回默认引擎配置（测试与零配置场景）
func DefaultEngine() EngineConfig {
	v := viper.New()
	setEngineDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg.Engine
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate 验证引擎配置
func (e *EngineConfig) Validate() error {
	if e.MinSupport <= 0 {
		return fmt.Errorf("engine.min_support must be positive")
	}
	if e.MinConfidence <= 0 {
		return fmt.Errorf("engine.min_confidence must be positive")
	}
	if e.MaxItemsetLength < 2 {
		return fmt.Errorf("engine.max_itemset_length must be at least 2")
	}
	if e.MediumValueAmount > e.HighValueAmount {
		return fmt.Errorf("engine.medium_value_amount must not exceed high_value_amount")
	}
	return nil
}
