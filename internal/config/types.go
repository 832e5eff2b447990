package config

import "time"

// Sync holds the timing of the reconciliation loop and of remote requests.
type Sync struct {
	IntervalMS       int `yaml:"interval_ms"`
	QuiescenceMS     int `yaml:"quiescence_ms"`
	RequestTimeoutMS int `yaml:"request_timeout_ms"`
}

// Interval returns the tick period.
func (s Sync) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

// Quiescence returns the minimum time between accepted transitions.
func (s Sync) Quiescence() time.Duration {
	return time.Duration(s.QuiescenceMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout for the remote client.
func (s Sync) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMS) * time.Millisecond
}

// Config represents the clipsync config.yaml file.
type Config struct {
	ServerURL     string   `yaml:"server_url"`
	AutoConnect   bool     `yaml:"auto_connect"`
	RecentServers []string `yaml:"recent_servers,omitempty"`
	Sync          Sync     `yaml:"sync"`
	LogLevel      string   `yaml:"log_level"`
}
