package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，CPO_ 前缀的环境变量可覆盖文件配置
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("CPO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

// Default 返回只包含默认值的配置，测试与缺省场景使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.broker", "local")

	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 100)
	v.SetDefault("database.max_lifetime", 60)

	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("mongo.database", "cpoverflow")
	v.SetDefault("mongo.max_pool_size", 50)

	v.SetDefault("minio.main_bucket", "cpoverflow")
	v.SetDefault("minio.upload_expire", 15)

	v.SetDefault("jwt.secret", "CPOverflow")
	v.SetDefault("jwt.issuer", "CPOverflow")
	v.SetDefault("jwt.expire", 24)

	v.SetDefault("chat.detail_message_limit", 50)
	v.SetDefault("chat.history_limit", 100)
	v.SetDefault("chat.send_buffer", 256)
	v.SetDefault("chat.ping_period", 54)
	v.SetDefault("chat.pong_wait", 60)
	v.SetDefault("chat.max_message_size", 8192)

	v.SetDefault("presence.active_window", 5)
	v.SetDefault("presence.away_window", 60)
	v.SetDefault("presence.flush_spec", "@every 30s")

	v.SetDefault("logstash.index", "logstash-cpoverflow")
}
