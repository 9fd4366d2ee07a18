// Package config carrega a configuração do relay a partir de variáveis de ambiente.
//
// Um arquivo `.env` no diretório de trabalho, se existir, é carregado antes
// (godotenv/autoload). Os nomes das variáveis são os mesmos das tags koanf em
// maiúsculas (ex: RATE_LIMIT_MAX -> rate_limit_max).
//
// Os secrets (Turnstile e Telegram) não são obrigatórios aqui: sem eles o
// processo sobe e cada request responde 500 "Missing worker secrets".
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	ListenAddr string `koanf:"listen_addr" validate:"required"`

	TurnstileSecretKey string `koanf:"turnstile_secret_key"`
	TelegramBotToken   string `koanf:"telegram_bot_token"`
	TelegramChatID     string `koanf:"telegram_chat_id"`

	AllowedOrigins string `koanf:"allowed_origins"`
	ClientIPHeader string `koanf:"client_ip_header" validate:"required"`

	// RedisAddr vazio usa o contador em memória (por instância).
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`

	RateLimitPrefix string        `koanf:"rate_limit_prefix" validate:"required"`
	RateLimitMax    int           `koanf:"rate_limit_max" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gte=1s"`

	MinDwellMs   float64 `koanf:"min_dwell_ms" validate:"gte=0"`
	MaxBodyBytes int64   `koanf:"max_body_bytes" validate:"gte=1"`

	TurnstileVerifyURL string        `koanf:"turnstile_verify_url" validate:"required,url"`
	TelegramAPIBase    string        `koanf:"telegram_api_base" validate:"required,url"`
	UpstreamTimeout    time.Duration `koanf:"upstream_timeout" validate:"gt=0"`

	ConcurrencyMax     int           `koanf:"concurrency_max" validate:"gte=0"`
	ConcurrencyTimeout time.Duration `koanf:"concurrency_timeout" validate:"gte=0"`

	// Guard global (token bucket por IP) na frente do endpoint. Desligado por padrão.
	GuardEnabled bool    `koanf:"guard_enabled"`
	GuardRPS     float64 `koanf:"guard_rps" validate:"gt=0"`
	GuardBurst   int     `koanf:"guard_burst" validate:"gte=1"`

	StatsPrefix string        `koanf:"stats_prefix" validate:"required"`
	StatsTTL    time.Duration `koanf:"stats_ttl" validate:"gte=0"`

	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn error"`
	LogPretty bool   `koanf:"log_pretty"`
}

// Default devolve a configuração usada quando nenhuma variável é definida.
func Default() Config {
	return Config{
		ListenAddr:         ":8787",
		ClientIPHeader:     "CF-Connecting-IP",
		RateLimitPrefix:    "rl",
		RateLimitMax:       5,
		RateLimitWindow:    600 * time.Second,
		MinDwellMs:         3000,
		MaxBodyBytes:       64 << 10,
		TurnstileVerifyURL: "https://challenges.cloudflare.com/turnstile/v0/siteverify",
		TelegramAPIBase:    "https://api.telegram.org",
		UpstreamTimeout:    10 * time.Second,
		ConcurrencyMax:     100,
		GuardRPS:           5,
		GuardBurst:         20,
		StatsPrefix:        "relay:stats",
		StatsTTL:           24 * time.Hour,
		LogLevel:           "info",
	}
}

// Load lê as variáveis de ambiente por cima de Default e valida o resultado.
func Load() (Config, error) {
	k := koanf.New(".")

	// Sem prefixo: as variáveis seguem os nomes já usados no deploy.
	// Variáveis vazias são ignoradas para que o default valha.
	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// SecretsComplete diz se as três credenciais estão presentes.
func (c Config) SecretsComplete() bool {
	return c.TurnstileSecretKey != "" && c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// UsesRedis indica se o contador durável (Redis) foi configurado.
func (c Config) UsesRedis() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}
