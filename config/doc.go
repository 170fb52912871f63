// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml over built-in defaults and
// validated using struct tags. Selected keys can be overridden with
// HOME_FINDER_* environment variables, which may also come from a .env file
// in the working directory.
package config
