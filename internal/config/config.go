package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingParam marks a required credential or connection parameter that
// was absent at boot. Callers treat this as fatal and do not retry.
var ErrMissingParam = errors.New("missing required config parameter")

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cron      CronConfig      `mapstructure:"cron"`
	KIS       KISConfig       `mapstructure:"kis"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
	Pipelines PipelinesConfig `mapstructure:"pipelines"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DailyNav string `mapstructure:"daily_nav"`
	DailyPnl string `mapstructure:"daily_pnl"`
}

// KISConfig carries the brokerage API credentials and the two account
// partitions the pipelines reconcile. The access token itself lives in the
// secret store, not here.
type KISConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	AppKey    string        `mapstructure:"app_key"`
	AppSecret string        `mapstructure:"app_secret"`
	CustType  string        `mapstructure:"cust_type"`
	Spot      AccountConfig `mapstructure:"spot"`
	Futures   AccountConfig `mapstructure:"futures"`
}

type AccountConfig struct {
	CANO       string `mapstructure:"cano"`
	AcntPrdtCd string `mapstructure:"acnt_prdt_cd"`
}

type SecretsConfig struct {
	Region        string `mapstructure:"region"`
	AccessTokenID string `mapstructure:"access_token_id"`
}

type PipelinesConfig struct {
	PnlStartDate string `mapstructure:"pnl_start_date"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "Asia/Seoul")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	// Weekday 16:20/16:10 local time: market close plus buffer.
	v.SetDefault("cron.daily_nav", "0 20 16 * * 1-5")
	v.SetDefault("cron.daily_pnl", "0 10 16 * * 1-5")
	v.SetDefault("kis.base_url", "https://openapi.koreainvestment.com:9443")
	v.SetDefault("kis.timeout", "10s")
	v.SetDefault("kis.cust_type", "P")
	v.SetDefault("secrets.region", "ap-northeast-2")
	v.SetDefault("pipelines.pnl_start_date", "20250601")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects a config that cannot drive the pipelines, at process
// start, so a half-configured service never reaches the scheduler.
func (c Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"db.dsn", c.DB.DSN},
		{"kis.app_key", c.KIS.AppKey},
		{"kis.app_secret", c.KIS.AppSecret},
		{"kis.spot.cano", c.KIS.Spot.CANO},
		{"kis.spot.acnt_prdt_cd", c.KIS.Spot.AcntPrdtCd},
		{"kis.futures.cano", c.KIS.Futures.CANO},
		{"kis.futures.acnt_prdt_cd", c.KIS.Futures.AcntPrdtCd},
		{"secrets.access_token_id", c.Secrets.AccessTokenID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingParam, r.key)
		}
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	return nil
}
