// Package appconfig loads the reference server's configuration from a YAML
// file and GOSESSION_* environment variables through viper, and maps it onto
// goSession.Config.
package appconfig
