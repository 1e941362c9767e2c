// Package config defines source locations used by the installer and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the config template URL, the binary download base URL
// and the latest-release lookup endpoint.
package config
