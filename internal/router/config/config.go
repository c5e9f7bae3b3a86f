package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Поддерживаемые драйверы базы данных.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress    string        `mapstructure:"SERVER_ADDRESS"`
	DBDriver         string        `mapstructure:"DB_DRIVER"`
	PostgresConn     string        `mapstructure:"POSTGRES_CONN"`
	PostgresUser     string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass     string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost     string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB       string        `mapstructure:"POSTGRES_DATABASE"`
	PostgresMaxConns int32         `mapstructure:"POSTGRES_MAX_CONNS"`
	MigrationURL     string        `mapstructure:"MIGRATION_URL"`
	SQLitePath       string        `mapstructure:"SQLITE_PATH"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":     "0.0.0.0:8080",
	"DB_DRIVER":          DriverPostgres,
	"POSTGRES_CONN":      "",
	"POSTGRES_USERNAME":  "",
	"POSTGRES_PASSWORD":  "",
	"POSTGRES_HOST":      "",
	"POSTGRES_PORT":      "5432",
	"POSTGRES_DATABASE":  "",
	"POSTGRES_MAX_CONNS": 10,
	"MIGRATION_URL":      "file://migrations",
	"SQLITE_PATH":        "hay.db",
	"REQUEST_TIMEOUT":    "5s",
	"CORS_ORIGINS":       "*",
}

// LoadConfig загружает конфигурацию из файла app.env в каталоге path.
// Переменные окружения переопределяют значения из файла. Файл необязателен.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	err = cfg.Validate()
	return
}

// Validate проверяет, что конфигурация достаточна для запуска.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresConn == "" {
			return fmt.Errorf("POSTGRES_CONN is required for driver %s", DriverPostgres)
		}
		if c.PostgresUser == "" || c.PostgresPass == "" {
			return fmt.Errorf("POSTGRES_USERNAME and POSTGRES_PASSWORD are required for driver %s", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for driver %s", DriverSQLite)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %q", c.DBDriver)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}
