package config

import "time"

const (
	apiBaseURLVar  = "TASTEMATE_API_URL"
	httpTimeoutVar = "TASTEMATE_HTTP_TIMEOUT"
)

type API struct{}

var _ APIConfig = API{}

func (API) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "https://api.tastemate.app")
}

// GetHTTPTimeout returns the per-request timeout for outbound API calls.
func (API) GetHTTPTimeout() time.Duration {
	raw := GetEnv(httpTimeoutVar, "30s")
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
