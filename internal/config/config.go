package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type AuthConfig struct {
	JWTSecret string
}

type OrderConfig struct {
	NumberPrefix    string
	ServiceFee      float64
	EstimateBase    time.Duration
	EstimatePerItem time.Duration
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "canteen")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "canteen")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("AUTH_JWT_SECRET", "dev-secret")
	viper.SetDefault("ORDER_NUMBER_PREFIX", "MRC")
	viper.SetDefault("ORDER_SERVICE_FEE", 5.0)
	viper.SetDefault("ORDER_ESTIMATE_BASE", "15m")
	viper.SetDefault("ORDER_ESTIMATE_PER_ITEM", "2m")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}
	estimateBase, err := time.ParseDuration(viper.GetString("ORDER_ESTIMATE_BASE"))
	if err != nil {
		return nil, err
	}
	estimatePerItem, err := time.ParseDuration(viper.GetString("ORDER_ESTIMATE_PER_ITEM"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("AUTH_JWT_SECRET"),
		},
		Order: OrderConfig{
			NumberPrefix:    viper.GetString("ORDER_NUMBER_PREFIX"),
			ServiceFee:      viper.GetFloat64("ORDER_SERVICE_FEE"),
			EstimateBase:    estimateBase,
			EstimatePerItem: estimatePerItem,
		},
	}

	return cfg, nil
}
