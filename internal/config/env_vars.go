package config

import "os"

const (
	appNameVar         = "TASTEMATE_APP_NAME"
	credentialsFileVar = "TASTEMATE_CREDENTIALS_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Tastemate")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetCredentialsFile returns the path of the persisted credential store.
func (EnvVars) GetCredentialsFile() string {
	return GetEnv(credentialsFileVar, ".tastemate-credentials.json")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
