package config

var defaults = map[string]any{
	"log_level": "info",
	"listen":    ":8080",

	"allowed_networks": "",

	// Empty means the origin is taken from the request.
	"base_url": "",

	"qr_size":         QR_IMAGE_SIZE,
	"metrics_enabled": true,

	"storage.local.path": "./data/instruments.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
