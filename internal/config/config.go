package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 汇总服务运行所需的全部配置项，均可通过环境变量覆盖。
type Config struct {
	Port              string
	DatabaseDSN       string
	JWTSecret         string
	Env               string
	SessionTTLMinutes int

	// 连接清扫配置
	SweepIntervalMinutes int
	IdleThresholdMinutes int

	// 第三方曲库配置
	CatalogBaseURL         string
	CatalogCacheTTLSeconds int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Load 读取环境变量（优先加载 .env 文件）并返回配置。
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:                   getenv("APP_PORT", "8080"),
		DatabaseDSN:            getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=musicquiz port=5432 sslmode=disable TimeZone=UTC"),
		JWTSecret:              getenv("JWT_SECRET", "dev-secret-change-me"),
		Env:                    getenv("APP_ENV", "dev"),
		SessionTTLMinutes:      getenvInt("SESSION_TTL_MINUTES", 720),
		SweepIntervalMinutes:   getenvInt("SWEEP_INTERVAL_MINUTES", 30),
		IdleThresholdMinutes:   getenvInt("IDLE_THRESHOLD_MINUTES", 180),
		CatalogBaseURL:         getenv("CATALOG_BASE_URL", "https://api.deezer.com"),
		CatalogCacheTTLSeconds: getenvInt("CATALOG_CACHE_TTL_SECONDS", 600),
	}
}

// Validate 校验配置合法性，生产环境禁止使用默认密钥。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("port must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("database dsn must not be empty")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("default jwt secret is not allowed outside dev")
	}
	if cfg.CatalogBaseURL == "" {
		return errors.New("catalog base url must not be empty")
	}
	return nil
}
