package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Log struct {
		Level string
	} `mapstructure:"log"`

	Telegram struct {
		Token       string
		AdminChatID int64         `mapstructure:"admin_chat_id"`
		Timeout     int           // long polling, секунды
		ReplyWithin time.Duration `mapstructure:"reply_within"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Receiving struct {
		DefaultWarehouseID int64 `mapstructure:"default_warehouse_id"`
	} `mapstructure:"receiving"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Europe/Moscow")
	v.SetDefault("log.level", "")
	v.SetDefault("telegram.timeout", 30)
	v.SetDefault("telegram.reply_within", 10*time.Second)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("receiving.default_warehouse_id", 0)
	// без дефолта AutomaticEnv не увидит ключ при Unmarshal
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("postgres.dsn", "")
}

// Load читает YAML (если файл есть), затем .env и переменные APP_*.
// APP_POSTGRES_DSN переопределяет postgres.dsn и т.п.
func Load(path string) (Config, error) {
	var c Config

	// .env необязателен
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Postgres.DSN == "" {
		return c, errors.New("postgres.dsn is required")
	}
	return c, nil
}
