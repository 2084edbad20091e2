// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config agrega todos os parâmetros necessários para API e worker.
type Config struct {
	HTTPAddress string `yaml:"http_address" env:"HTTP_ADDRESS" env-default:":8080"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	PostgresHost     string `yaml:"postgres_host" env:"POSTGRES_HOST" env-default:"localhost"`
	PostgresPort     string `yaml:"postgres_port" env:"POSTGRES_PORT" env-default:"5432"`
	PostgresUser     string `yaml:"postgres_user" env:"POSTGRES_USER" env-default:"quando"`
	PostgresPassword string `yaml:"postgres_password" env:"POSTGRES_PASSWORD" env-default:"quando"`
	PostgresDB       string `yaml:"postgres_db" env:"POSTGRES_DB" env-default:"quando_pode"`
	PostgresSSLMode  string `yaml:"postgres_sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`

	PostgresMaxOpenConns int `yaml:"postgres_max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS" env-default:"25"`
	PostgresMaxIdleConns int `yaml:"postgres_max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS" env-default:"25"`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`

	PollCacheEnabled bool          `yaml:"poll_cache_enabled" env:"POLL_CACHE_ENABLED" env-default:"true"`
	PollCachePrefix  string        `yaml:"poll_cache_prefix" env:"POLL_CACHE_PREFIX" env-default:"cache:poll"`
	PollCacheTTL     time.Duration `yaml:"poll_cache_ttl" env:"POLL_CACHE_TTL" env-default:"5m"`

	ActivityQueueKey  string `yaml:"activity_queue_key" env:"ACTIVITY_QUEUE_KEY" env-default:"fila:atividade"`
	CounterKeyPrefix  string `yaml:"counter_prefix" env:"REDIS_COUNTER_PREFIX" env-default:"contador"`
	PublishActivities bool   `yaml:"publish_activities" env:"PUBLISH_ACTIVITIES" env-default:"true"`

	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`

	AutoMigrate bool `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`

	WorkerMetricsAddress     string        `yaml:"worker_metrics_address" env:"WORKER_METRICS_ADDRESS" env-default:":9090"`
	WorkerQueueDepthInterval time.Duration `yaml:"worker_queue_depth_interval" env:"WORKER_QUEUE_DEPTH_INTERVAL" env-default:"15s"`
}

// Load lê o YAML apontado por CONFIG_PATH (se houver) e aplica as variáveis de ambiente por cima.
func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: ler %s: %w", path, err)
		}
		return cfg, cfg.validate()
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: ler ambiente: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.PollCacheEnabled && c.PollCacheTTL <= 0 {
		return fmt.Errorf("config: POLL_CACHE_TTL deve ser positivo")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("config: REDIS_DB invalido: %d", c.RedisDB)
	}
	return nil
}

func (c Config) PostgresDSN() string {
	// Mantemos o formato DSN compatível com GORM e ferramentas de migração.
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}
