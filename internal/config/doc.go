// Package config provides configuration structures and utilities for pageloader.
// It defines download settings, transport options, report preferences and the
// optional .pageloader file with per-site request settings.
package config
