// Package config loads application configuration from YAML with
// environment variable overrides.
package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN      string `mapstructure:"dsn"`
		MaxConns int32  `mapstructure:"max_conns"`
		MinConns int32  `mapstructure:"min_conns"`
	} `mapstructure:"postgres"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Migrations struct {
		Dir  string `mapstructure:"dir"`
		Auto bool   `mapstructure:"auto"`
	} `mapstructure:"migrations"`
}

// Load reads configuration from the given file. Environment variables
// prefixed MERCATOR_ override file values (e.g. MERCATOR_POSTGRES_DSN).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MERCATOR")
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("migrations.dir", "migrations")
	v.SetDefault("migrations.auto", true)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
