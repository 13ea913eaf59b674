package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string // memory, sqlite, postgres
		Name       string
		Host       string
		Port       int
		User       string
		Password   string
		DisableTLS bool
		Path       string // memory: JSON document file (optional); sqlite: database file
	}

	LogConfig struct {
		FilePath   string
		Level      string
		MaxSize    int // megabytes
		MaxBackups int
		MaxAge     int // days
		Compress   bool
	}

	JuryConfig struct {
		Seed int64 // 0: seeded from crypto/rand
	}

	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		SecretKey        string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Log      LogConfig
		Jury     JuryConfig
	}
)

// DSN returns the connection string of the configured SQL engine.
func (c DatabaseConfig) DSN() string {
	switch c.Engine {
	case "sqlite":
		if c.Path == "" {
			return ":memory:"
		}
		return c.Path
	case "postgres":
		sslMode := "require"
		if c.DisableTLS {
			sslMode = "disable"
		}
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s&timezone=utc",
			c.User, c.Password, c.Host, c.Port, c.Name, sslMode,
		)
	}
	return ""
}

// NewConfig reads the configuration from the environment.
// Variables are prefixed by the uppercased ENV value (DEV by default): DEV_DEBUG, DEV_SERVER_ADDRESS...
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Juror")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "k3x!o9w_ue)7mr%2zq+b1c(4^gj8d#yh5vl0@fa6tn$pi")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "http://localhost:8000")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.engine", "memory")
	v.SetDefault("database.name", "juror")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "")
	v.SetDefault("log.filePath", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxSize", 100)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAge", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("jury.seed", int64(0))

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(os.Getenv("CONFIG_DIR"), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(v.GetString("database.engine")),
			Name:       v.GetString("database.name"),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
			Path:       v.GetString("database.path"),
		},
		Log: LogConfig{
			FilePath:   v.GetString("log.filePath"),
			Level:      v.GetString("log.level"),
			MaxSize:    v.GetInt("log.maxSize"),
			MaxBackups: v.GetInt("log.maxBackups"),
			MaxAge:     v.GetInt("log.maxAge"),
			Compress:   v.GetBool("log.compress"),
		},
		Jury: JuryConfig{
			Seed: v.GetInt64("jury.seed"),
		},
	}
}
