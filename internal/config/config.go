// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	TimeZone                string `yaml:"timezone" env-default:"Asia/Colombo"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Session                 `yaml:"session"`
	RabbitMQ                `yaml:"rabbitmq"`
	Simulator               `yaml:"simulator"`
	Geocoder                `yaml:"geocoder"`
	Payment                 `yaml:"payment"`
	Pricing                 `yaml:"pricing"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Session настройки cookie-сессии
type Session struct {
	SessionKey   string        `yaml:"session_key"`
	CookieName   string        `yaml:"cookie_name" env-default:"waste_session"`
	CookieSecure bool          `yaml:"cookie_secure"`
	CookieMaxAge time.Duration `yaml:"cookie_max_age" env-default:"24h"`
}

// RabbitMQ настройки брокера сообщений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url"`
	RabbitMQMaxRetries uint          `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Simulator настройки симулятора заполненности точек сбора
type Simulator struct {
	SimulatorInterval time.Duration `yaml:"interval" env-default:"1h"`
}

// Geocoder настройки сервиса геокодирования
type Geocoder struct {
	GeocoderURL     string        `yaml:"url"`
	GeocoderAPIKey  string        `yaml:"api_key"`
	GeocoderTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// Payment настройки платёжного шлюза
type Payment struct {
	PaymentURL       string `yaml:"url"`
	PaymentShopID    string `yaml:"shop_id"`
	PaymentSecretKey string `yaml:"secret_key"`
	PaymentCurrency  string `yaml:"currency" env-default:"LKR"`
}

// Pricing тарифы: выплата за килограмм вторсырья и стоимость единицы
// специальных отходов по категориям. Значения задаются десятичными строками.
type Pricing struct {
	PaybackRates map[string]string `yaml:"payback_rates"`
	SpecialFees  map[string]string `yaml:"special_fees"`
}

// SMTP почтовый сервер уведомлений о смене статуса
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user"`
	SMTPPass string `yaml:"password"`
}

// MustLoad функция для загрузки конфига, путь к которому задан в CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// Location часовой пояс дат и слотов вывоза.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"TimeZone: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  MaxRetries: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"  RetryDelay: %s\n"+
			"Simulator:\n"+
			"  Interval: %s\n",
		c.Env,
		c.MigrationsPath,
		c.TimeZone,
		c.AddressRedis,
		c.DB,
		c.MaxRetries,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.RabbitMQMaxRetries,
		c.RabbitMQRetryDelay,
		c.SimulatorInterval,
	)
}
