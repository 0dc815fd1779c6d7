package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

// Timeouts 依次为 read / write / idle
func (h HTTP) Timeouts() (time.Duration, time.Duration, time.Duration) {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return sec(h.ReadTimeoutSec), sec(h.WriteTimeoutSec), sec(h.IdleTimeoutSec)
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin HTTP
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

// LogFile 为空时只输出到 stdout
type LogFile struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	PreviousSecrets   []string
	Issuer            string
	AccessTokenTTLMin int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Limits struct {
	RPS          float64
	Burst        int
	LoginRPS     float64 // 每 IP 登录限速
	LoginBurst   int
	Concurrency  int64
	MaxBodyBytes int64
	TimeoutSec   int
}

// SeedMenu 首次启动写入的菜单；ParentCode 为空时按编码推断上级
type SeedMenu struct {
	Code       string
	Title      string
	Path       string
	Icon       string
	IsFolder   bool
	ParentCode string
	Sort       int
}

type Menu struct {
	CacheTTLSec int
	Seed        []SeedMenu
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Limits Limits
	Menu   Menu
}

const minSecretLen = 32

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "yolo-backend")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("app.admin.readTimeoutSec", 5)
	v.SetDefault("app.admin.writeTimeoutSec", 10)
	v.SetDefault("app.admin.idleTimeoutSec", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "yolo-backend")
	v.SetDefault("jwt.accessTokenTTLMin", 24*60)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:yolo.db?_pragma=busy_timeout(5000)")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")
	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.loginRPS", 1)
	v.SetDefault("limits.loginBurst", 10)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.maxBodyBytes", 16<<20)
	v.SetDefault("limits.timeoutSec", 10)
	v.SetDefault("menu.cacheTTLSec", 300)
}

// Read 读取 YAML + APP_ 前缀环境变量；文件不存在时仅用默认值与环境变量
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv 只作用于已知 key，密钥没有默认值，需要显式绑定
	_ = v.BindEnv("jwt.secret")
	_ = v.BindEnv("db.dsn")
	_ = v.BindEnv("db.password")
	_ = v.BindEnv("redis.addr")
	_ = v.BindEnv("redis.password")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < minSecretLen {
		return fmt.Errorf("jwt.secret must be provisioned (APP_JWT_SECRET) and at least %d bytes", minSecretLen)
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("jwt.accessTokenTTLMin must be positive")
	}
	return nil
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}
