package model

import "time"

// Entry is a single configuration value as exposed to users of the server
// and the command line.
type Entry struct {
	Section string `json:"section" yaml:"section" toml:"section"`
	Key     string `json:"key" yaml:"key" toml:"key"`
	Type    string `json:"type" yaml:"type" toml:"type"`
	Value   string `json:"value" yaml:"value" toml:"value"`
}

// RepositoryStatus describes the refresh state of one configuration source.
type RepositoryStatus struct {
	Name        string     `json:"name"`
	Healthy     bool       `json:"healthy"`
	Ready       bool       `json:"ready"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Sections    int        `json:"sections"`
}
