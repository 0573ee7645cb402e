package config

import "github.com/caarlos0/env/v11"

// TestConfig holds the database handle for store integration tests. Tests
// that need it skip themselves when the variable is unset.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	if err := env.Parse(&cfg); err != nil {
		return TestConfig{}, err
	}
	return cfg, nil
}
