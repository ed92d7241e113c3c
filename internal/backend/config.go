package backend

import "ledger/internal/config"

// RedisPrefix namespaces ledger keys in a shared Redis database.
const RedisPrefix = "ledger:"

// ConfigFromAppConfig converts application config to backend config
func ConfigFromAppConfig(appConfig *config.Config) Config {
	return Config{
		Type:          BackendType(appConfig.DataBackend),
		DataDirectory: appConfig.DataFileDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		RedisURL:      appConfig.RedisURL,
		RedisPrefix:   RedisPrefix,
	}
}
