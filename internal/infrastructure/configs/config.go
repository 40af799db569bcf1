package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"relaychat/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	Room        RoomConfig        `koanf:"room"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Logging     LoggingConfig     `koanf:"logging"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RoomConfig struct {
	CodeLength int `koanf:"code_length"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type LoggingConfig struct {
	Level    string `koanf:"level"`
	FilePath string `koanf:"file_path"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if one was found
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 10000)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	// Room defaults
	setDefault(k, "room.code_length", 4)

	// Rate limiter defaults
	setDefault(k, "rateLimiter.requestsPerTimeFrame", 20)
	setDefault(k, "rateLimiter.timeFrame", 5*time.Second)

	// Logging defaults
	setDefault(k, "logging.level", "info")
	setDefault(k, "logging.file_path", "")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if codeLength := env.GetInt("ROOM_CODE_LENGTH", 0); codeLength > 0 {
		k.Set("room.code_length", codeLength)
	}

	if requests := env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 0); requests > 0 {
		k.Set("rateLimiter.requestsPerTimeFrame", requests)
	}
	if timeFrame := env.GetInt("RATE_LIMIT_TIME_FRAME_SECONDS", 0); timeFrame > 0 {
		k.Set("rateLimiter.timeFrame", time.Duration(timeFrame)*time.Second)
	}

	if level := env.GetString("LOGGER_LEVEL", ""); level != "" {
		k.Set("logging.level", level)
	}
	if filePath := env.GetString("LOGGER_FILE_PATH", ""); filePath != "" {
		k.Set("logging.file_path", filePath)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
