package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/trackmeta/internal/flagx"
	"github.com/dmitrijs2005/trackmeta/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	HealthEndpointAddr  string         `json:"health_endpoint_addr"`
	CookieDBPath        string         `json:"cookie_db_path"`
	RefreshTimeout      timex.Duration `json:"refresh_timeout"`
	WarningLead         timex.Duration `json:"warning_lead"`
	CloseWindow         timex.Duration `json:"close_window"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from -c or -config via flagx.JsonConfigFlags(); when
// both are absent nothing is loaded. Fields missing from the file keep their
// current values. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay(&cfg.ServerURL, jc.ServerURL)
	overlay(&cfg.HealthEndpointAddr, jc.HealthEndpointAddr)
	overlay(&cfg.CookieDBPath, jc.CookieDBPath)
	overlay(&cfg.RefreshTimeout, jc.RefreshTimeout.Duration)
	overlay(&cfg.WarningLead, jc.WarningLead.Duration)
	overlay(&cfg.CloseWindow, jc.CloseWindow.Duration)
	overlay(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval.Duration)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
