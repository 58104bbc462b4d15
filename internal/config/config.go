package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Env         string `yaml:"env"`
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	// 远程提取接口
	APIBaseURL string        `yaml:"api_base_url"`
	APITimeout time.Duration `yaml:"api_timeout"`

	// 媒体代理
	ProxySecret             string `yaml:"proxy_secret"`
	ProxyBaseURL            string `yaml:"proxy_base_url"`
	MediaProxyAllowUnsigned bool   `yaml:"media_proxy_allow_unsigned"`

	// 请求节奏
	PageDelay  time.Duration `yaml:"page_delay"`
	ReplyDelay time.Duration `yaml:"reply_delay"`
	URLDelay   time.Duration `yaml:"url_delay"`

	CacheTTL       time.Duration `yaml:"cache_ttl"`
	RunHistorySize int           `yaml:"run_history_size"`
	RunTTL         time.Duration `yaml:"run_ttl"`
	TableBatchSize int           `yaml:"table_batch_size"`

	// 表格存储：postgres 或 memory
	TableStore string `yaml:"table_store"`
	// 管理接口 token，为空时关闭管理接口
	AdminToken string `yaml:"admin_token"`
}

// Load 加载配置，设置了 CONFIG_FILE 时用 YAML 文件覆盖环境变量
func Load() *Config {
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "dataminer")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		Port:                    getEnv("PORT", "5007"),
		DatabaseURL:             getEnv("DATABASE_URL", dbURL),
		APIBaseURL:              getEnv("API_BASE_URL", "https://data.snappdown.com"),
		APITimeout:              time.Duration(getEnvInt("API_TIMEOUT_SECONDS", 30)) * time.Second,
		ProxySecret:             getEnv("PROXY_SECRET", "dataminer-proxy-secret"),
		ProxyBaseURL:            getEnv("PROXY_BASE_URL", ""),
		MediaProxyAllowUnsigned: getEnv("MEDIA_PROXY_ALLOW_UNSIGNED", "false") == "true",
		PageDelay:               time.Duration(getEnvInt("PAGE_DELAY_MS", 1000)) * time.Millisecond,
		ReplyDelay:              time.Duration(getEnvInt("REPLY_DELAY_MS", 500)) * time.Millisecond,
		URLDelay:                time.Duration(getEnvInt("URL_DELAY_MS", 100)) * time.Millisecond,
		CacheTTL:                time.Duration(getEnvInt("CACHE_TTL_MINUTES", 5)) * time.Minute,
		RunHistorySize:          getEnvInt("RUN_HISTORY_SIZE", 500),
		RunTTL:                  time.Duration(getEnvInt("RUN_TTL_MINUTES", 60)) * time.Minute,
		TableBatchSize:          getEnvInt("TABLE_BATCH_SIZE", 100),
		TableStore:              getEnv("TABLE_STORE", "postgres"),
		AdminToken:              getEnv("ADMIN_TOKEN", ""),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			fmt.Printf("加载配置文件失败: %v\n", err)
		}
	}

	if cfg.Env == "production" && cfg.ProxySecret == "dataminer-proxy-secret" {
		fmt.Println("【严重警告】生产环境正在使用默认代理密钥！请立即设置 PROXY_SECRET 环境变量。")
	}
	return cfg
}

// LoadFile 用 YAML 文件覆盖已有配置，文件中未出现的键保持原值
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

// UseMemoryStore 是否使用内存表格（不连接数据库）
func (c *Config) UseMemoryStore() bool {
	return c.TableStore == "memory"
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}
