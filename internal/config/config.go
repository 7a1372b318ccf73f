// Package config loads service configuration from an optional YAML file with
// environment-variable overrides for the values that change per deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all CodeMentor configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	LLM     LLMConfig     `yaml:"llm"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// Token-bucket rate limit applied to the run endpoint.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is tokens/second plus burst capacity.
type RateLimitConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst float64 `yaml:"burst"`
}

// RedisConfig configures the job queue broker. An empty Addr selects the
// in-process queue (single-node mode, no worker binary needed).
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Stream string `yaml:"stream"`
	Group  string `yaml:"group"`
}

// SandboxConfig configures code execution.
type SandboxConfig struct {
	// Runtime selects the runner: "goja" (embedded engine, javascript only)
	// or "docker" (ephemeral containers).
	Runtime string `yaml:"runtime"`

	// Timeout is the hard per-run limit, e.g. "5s".
	Timeout string `yaml:"timeout"`

	// Workers is the pool concurrency.
	Workers int `yaml:"workers"`

	// DockerImage overrides the container image when Runtime is "docker".
	DockerImage string `yaml:"docker_image"`
}

// LLMConfig configures the completion provider behind the tutor.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			RateLimit: RateLimitConfig{
				Rate:  0.5,
				Burst: 5,
			},
		},
		Redis: RedisConfig{
			Stream: "codementor:runs",
			Group:  "codementor:workers",
		},
		Sandbox: SandboxConfig{
			Runtime: "goja",
			Timeout: "5s",
			Workers: 4,
		},
		LLM: LLMConfig{
			Model: "gemini-2.0-flash",
		},
	}
}

// Load reads path (if non-empty and present) over the defaults, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CODEMENTOR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CODEMENTOR_SANDBOX_RUNTIME"); v != "" {
		c.Sandbox.Runtime = v
	}
	if v := os.Getenv("CODEMENTOR_SANDBOX_TIMEOUT"); v != "" {
		c.Sandbox.Timeout = v
	}
	if v := os.Getenv("CODEMENTOR_SANDBOX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sandbox.Workers = n
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("CODEMENTOR_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

// SandboxTimeout parses the configured timeout, falling back to 5s on junk.
func (c *Config) SandboxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
