package onesignal

// Config holds the OneSignal REST API settings.
type Config struct {
	// AppID identifies the OneSignal app.
	AppID string `mapstructure:"app_id" default:""`
	// APIKey is the app's REST API key.
	APIKey string `mapstructure:"api_key" default:""`
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.onesignal.com"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
