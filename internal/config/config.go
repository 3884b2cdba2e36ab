// Package config はプロセス起動時に一度だけ読み込む設定を提供する。
//
// 読み込み順は「既定値 → 設定ファイル（任意） → 環境変数」で、後勝ち。
// 環境変数は MOBILENOTIFY_ プレフィックスを付け、階層はアンダースコアで区切る
// （例: MOBILENOTIFY_DATABASE_PASSWORD）。認証情報をバイナリに埋め込むことはしない。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix は環境変数のプレフィックス。
const EnvPrefix = "MOBILENOTIFY"

// Config はアプリケーション全体の設定。値として受け渡し、読み込み後は変更しない。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Internal InternalConfig `mapstructure:"internal"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port はリッスンポート。
	Port string `mapstructure:"port"`
	// GinMode はGinの動作モード（debug / release / test）。
	GinMode string `mapstructure:"gin_mode"`
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// AutoMigrate が真の場合、起動時にマイグレーションを適用する。
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DatabaseConfig はリレーショナルストアの設定。
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// InternalConfig は内部API（配信ワーカー向け）の設定。
type InternalConfig struct {
	// TokenSecret はサービストークンの署名鍵。空の場合は検証しない。
	TokenSecret string `mapstructure:"token_secret"`
}

// ClientConfig はCLIからサーバーを呼び出す際の設定。
type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// setDefaults は既定値を登録する。
// 環境変数からの読み込みはviperが既知のキーに対してのみ行うため、全キーを登録する。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8086")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.auto_migrate", true)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.name", "mysystem")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.query_timeout", 10*time.Second)

	v.SetDefault("internal.token_secret", "")

	v.SetDefault("client.base_url", "http://localhost:8086")
	v.SetDefault("client.timeout", 30*time.Second)
}

// LoadDotEnv はカレントディレクトリの .env を読み込む。
// ファイルが無い場合は何もしない。既に設定済みの環境変数は上書きしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%s の読み込みに失敗: %w", p, err)
		}
	}
	return nil
}

// Load は設定を読み込み、検証済みのConfigを返す。
// configFileが空の場合は設定ファイルを読まない。
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("設定のデコードに失敗: %w", err)
	}
	cfg.Server.AllowedOrigins = splitOrigins(cfg.Server.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c Config) Validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server.port が数値ではありません: %q", c.Server.Port))
	}

	switch c.Database.Driver {
	case "mysql":
		if c.Database.DSN == "" {
			if c.Database.User == "" {
				errs = append(errs, errors.New("database.user または database.dsn を指定してください"))
			}
			if c.Database.Name == "" {
				errs = append(errs, errors.New("database.name を指定してください"))
			}
		}
	case "sqlite":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("sqlite では database.dsn を指定してください"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver が不正です: %q", c.Database.Driver))
	}

	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("database.max_open_conns は1以上にしてください"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, errors.New("database.max_idle_conns は0以上にしてください"))
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, errors.New("database.query_timeout は正の値にしてください"))
	}

	return errors.Join(errs...)
}

// DataSourceName はドライバに渡す接続文字列を返す。
// database.dsn が指定されていればそれを優先する。
// MySQLでは utf8mb4・parseTime・UTC を固定で設定する。
func (d DatabaseConfig) DataSourceName() string {
	if d.DSN != "" {
		return d.DSN
	}
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	mc.DBName = d.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	mc.Timeout = 5 * time.Second
	return mc.FormatDSN()
}

// splitOrigins は "a,b" 形式で渡されたオリジンを展開し、空要素を取り除く。
func splitOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		for part := range strings.SplitSeq(o, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
