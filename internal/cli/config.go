package cli

import (
	"romscrape/internal/app"
	"romscrape/internal/config"
)

var defaultKeyList = []string{
	"./config.json",
	"/etc/romscrape/config.json",
}

// LoadConfig loads configuration from the explicit path when given, falling
// back to the default locations.
func LoadConfig(explicit string) (*config.Config, error) {
	keyLists := append([]string{explicit}, defaultKeyList...)
	return config.LoadFirst(keyLists...)
}

func loadEnv() (*app.Env, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return app.NewEnv(cfg)
}
