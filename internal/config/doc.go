// Package config provides the configuration of a nextcrawl run.
//
// Values are resolved in three layers: built-in defaults from NewConfig,
// then the defaults and the selected profile of the .nextcrawl YAML file,
// then explicit command-line flags.
package config
