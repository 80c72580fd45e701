package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"clinic-roster/internal/attendance"
	"clinic-roster/internal/signup"
)

const DefaultPath = "config/config.yaml"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	AllowOrigin []string `yaml:"allow_origins"`
	Certificate Certs    `yaml:"certificate"`
}

// StorageConfig: driver は mysql / memory、policy は per_clinic / per_upload
type StorageConfig struct {
	Driver         string `yaml:"driver"`
	Policy         string `yaml:"policy"`
	CreateOnDemand bool   `yaml:"create_on_demand"`
	DefaultSession string `yaml:"default_session"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
	Prefix    string        `yaml:"prefix"`
}

type SheetsConfig struct {
	APIKey  string        `yaml:"api_key"`
	Range   string        `yaml:"range"`
	Timeout time.Duration `yaml:"timeout"`
	Cache   CacheConfig   `yaml:"cache"`
}

type ExportConfig struct {
	Encoding string `yaml:"encoding"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Version string                `yaml:"version"`
	Mode    string                `yaml:"mode"`
	Server  ServerConfig          `yaml:"server"`
	DB      DatabaseConfig        `yaml:"database"`
	Storage StorageConfig         `yaml:"storage"`
	Sheets  SheetsConfig          `yaml:"sheets"`
	Export  ExportConfig          `yaml:"export"`
	Log     LogConfig             `yaml:"log"`
	Clinics []signup.ClinicColumn `yaml:"clinics"`

	// "Monday - Red Ball Clinic" 形式。未指定なら全曜日×全クリニック
	DisplayOrder []string `yaml:"display_order"`
}

// Load reads the YAML file at path, then applies .env / environment overrides.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	return Parse(buf)
}

// Parse is Load without the file read; used by tests.
func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	// .env は無くてもよい
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.DB.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.DB.Port = p
		}
	}
	if v := os.Getenv("SHEETS_API_KEY"); v != "" {
		c.Sheets.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Sheets.Cache.RedisAddr = v
	}
	if v := os.Getenv("SESSION_NAME"); v != "" {
		c.Storage.DefaultSession = v
	}
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mysql"
	}
	if c.Storage.Policy == "" {
		c.Storage.Policy = "per_clinic"
	}
	if c.Sheets.Timeout == 0 {
		c.Sheets.Timeout = 15 * time.Second
	}
	if c.Sheets.Cache.TTL == 0 {
		c.Sheets.Cache.TTL = 10 * time.Minute
	}
	if c.Sheets.Cache.Prefix == "" {
		c.Sheets.Cache.Prefix = "roster:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if len(c.Clinics) == 0 {
		c.Clinics = signup.DefaultClinicColumns()
	}
}

func (c *Config) validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release, got %q", c.Mode)
	}
	switch c.Storage.Driver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("storage.driver must be mysql or memory, got %q", c.Storage.Driver)
	}
	switch c.Storage.Policy {
	case "per_clinic", "per_upload":
	default:
		return fmt.Errorf("storage.policy must be per_clinic or per_upload, got %q", c.Storage.Policy)
	}
	if _, err := c.Order(); err != nil {
		return err
	}
	return nil
}

// Order returns the configured display order as keys.
func (c *Config) Order() ([]attendance.Key, error) {
	if len(c.DisplayOrder) == 0 {
		return attendance.DefaultDisplayOrder(), nil
	}
	out := make([]attendance.Key, 0, len(c.DisplayOrder))
	for _, label := range c.DisplayOrder {
		k, ok := attendance.ParseKey(strings.TrimSpace(label))
		if !ok {
			return nil, fmt.Errorf("display_order: invalid entry %q (want \"Day - Clinic\")", label)
		}
		out = append(out, k)
	}
	return out, nil
}

// TLS reports whether both certificate paths are set.
func (c *Config) TLS() bool {
	return c.Server.Certificate.Cert != "" && c.Server.Certificate.Key != ""
}
