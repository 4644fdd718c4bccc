package serverconfig

import (
	"net"
	"strconv"

	"TrenchGame/internal/battle/rules"
	"TrenchGame/internal/shared/config"
)

// Defaults is what a missing key falls back to.
func Defaults() Config {
	return Config{
		BattleServer: BattleServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			ReadLimit: 4096,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     7,
		},
		Battle: rules.Default(),
	}
}

// Load resolves the config path, decodes it over Defaults and validates the
// battle rules. The returned loader keeps watching the file.
func Load(cfgName string) (*config.Loader[Config], error) {
	path, err := config.Resolve(cfgName)
	if err != nil {
		return nil, err
	}
	l, err := config.Load(path, Defaults(), true)
	if err != nil {
		return nil, err
	}
	if err := l.Current().Battle.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func fmtAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
