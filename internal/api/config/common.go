package config

// Config 配置主体
type Config struct {
	Server                   ServerConfig            `mapstructure:"server"`
	DB                       DBConfig                `mapstructure:"database"`
	Redis                    RedisConfig             `mapstructure:"redis"`
	Mongo                    MongoConfig             `mapstructure:"mongo"`
	MinIO                    MinIOConfig             `mapstructure:"minio"`
	JWT                      JWTConfig               `mapstructure:"jwt"`
	Chat                     ChatConfig              `mapstructure:"chat"`
	Presence                 PresenceConfig          `mapstructure:"presence"`
	Logstash                 LogstashConfig          `mapstructure:"logstash"`
	Kafka                    KafkaConfig             `mapstructure:"kafka"`
	KafkaUserFollowsConsumer KafkaUserFollowConsumer `mapstructure:"kafka_user_follow_consumer"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// Broker 房间广播方式: local 单实例 / redis 多实例
	Broker string `mapstructure:"broker"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL         string `mapstructure:"url"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Region           string `mapstructure:"region"`
	MainBucket       string `mapstructure:"main_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	UploadExpire     int    `mapstructure:"upload_expire"`
}

// JWTConfig 访问令牌配置，过期时间单位为小时
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
	Expire int    `mapstructure:"expire"`
}

// ChatConfig 聊天相关参数
type ChatConfig struct {
	DetailMessageLimit int `mapstructure:"detail_message_limit"`
	HistoryLimit       int `mapstructure:"history_limit"`
	SendBuffer         int `mapstructure:"send_buffer"`
	PingPeriod         int `mapstructure:"ping_period"`
	PongWait           int `mapstructure:"pong_wait"`
	MaxMessageSize     int `mapstructure:"max_message_size"`
}

// PresenceConfig 在线状态参数，窗口单位为分钟
type PresenceConfig struct {
	ActiveWindow int    `mapstructure:"active_window"`
	AwayWindow   int    `mapstructure:"away_window"`
	FlushSpec    string `mapstructure:"flush_spec"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
}

type KafkaUserFollowConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}
