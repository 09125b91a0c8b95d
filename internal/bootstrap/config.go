package bootstrap

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string        `mapstructure:"SERVER_PORT"`
	RedisUrl         string        `mapstructure:"REDIS_URL"`
	MongoUri         string        `mapstructure:"MONGO_URI"`
	MongoDatabase    string        `mapstructure:"MONGO_DATABASE"`
	AgentDir         string        `mapstructure:"AGENT_DIR"`
	AgentLoadTimeout time.Duration `mapstructure:"AGENT_LOAD_TIMEOUT"`
	AgentMoveTimeout time.Duration `mapstructure:"AGENT_MOVE_TIMEOUT"`
	NotifyTimeout    time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	RecordTTL        time.Duration `mapstructure:"RECORD_TTL"`
	ClockMinutes     int           `mapstructure:"CLOCK_MINUTES"`
	AgentGrpcPort    string        `mapstructure:"AGENT_GRPC_PORT"`
	AgentSource      string        `mapstructure:"AGENT_SOURCE"`
}

var defaults = map[string]any{
	"SERVER_PORT":        "8080",
	"REDIS_URL":          "",
	"MONGO_URI":          "",
	"MONGO_DATABASE":     "agladiator",
	"AGENT_DIR":          "agents",
	"AGENT_LOAD_TIMEOUT": 10 * time.Second,
	"AGENT_MOVE_TIMEOUT": 5 * time.Second,
	"NOTIFY_TIMEOUT":     2 * time.Second,
	"RECORD_TTL":         24 * time.Hour,
	"CLOCK_MINUTES":      1,
	"AGENT_GRPC_PORT":    "8082",
	"AGENT_SOURCE":       "builtin:random",
}

// Setup reads cfgPath when it exists; environment variables override the
// file and defaults fill whatever neither sets.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
