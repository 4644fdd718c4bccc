package serverconfig

import "TrenchGame/internal/battle/rules"

type Config struct {
	BattleServer BattleServerConfig `yaml:"battleserver" mapstructure:"battleserver"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Battle       rules.Rules        `yaml:"battle" mapstructure:"battle"`
}

type BattleServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	// ReadLimit caps one inbound WebSocket frame in bytes.
	ReadLimit int64 `yaml:"read_limit" mapstructure:"read_limit"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

// Addr is the host:port the HTTP server listens on.
func (c BattleServerConfig) Addr() string {
	return fmtAddr(c.Host, c.Port)
}
