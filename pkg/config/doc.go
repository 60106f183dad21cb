// Package config loads application configuration from environment variables
// into typed structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: the
// default .env file is loaded once per process (missing files are fine), then
// env.Parse fills the struct from `env` field tags. Each configuration type is
// parsed at most once; later calls for the same type return the cached copy,
// so packages can declare their own Config structs and load them independently
// without coordinating.
//
//	type Config struct {
//		Addr    string        `env:"HTTP_ADDR" envDefault:":8080"`
//		Timeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
