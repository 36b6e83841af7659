package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	envPrefix = "kmersketch"
	envDev    = "dev"
)

// envVars holds defaults read from KMERSKETCH_* variables. Command-line flags
// override them.
type envVars struct {
	Environment string `envconfig:"ENVIRONMENT" default:"prod"`
	KSize       int    `envconfig:"KSIZE" default:"21"`
	MaxSize     int    `envconfig:"MAXSIZE" default:"1000"`
	Family      string `envconfig:"FAMILY" default:"murmur3"`
	// Seed < 0 selects the family default.
	Seed       int64 `envconfig:"SEED" default:"-1"`
	Canonical  bool  `envconfig:"CANONICAL" default:"true"`
	Counts     bool  `envconfig:"COUNTS" default:"false"`
	Workers    int   `envconfig:"WORKERS" default:"0"`
	ChunkWidth int   `envconfig:"CHUNK_WIDTH" default:"1048576"`
}

// loadEnv reads an optional .env file and then the process environment.
func loadEnv() (envVars, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	var env envVars
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return envVars{}, fmt.Errorf("load environment: %w", err)
	}
	return env, nil
}
