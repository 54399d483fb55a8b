// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bridge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the struct-literal alternative to the With... options table
// (spec.md §6), for deployments that prefer a checked-in YAML file over
// constructing Options in code — mirroring the teacher's sibling config
// module, which binds YAML documents via gopkg.in/yaml.v3
// (rivaas.dev/binding/yaml).
type FileConfig struct {
	Prefix            string        `yaml:"prefix"`
	ValidateResponses bool          `yaml:"validateResponses"`
	LogRequests       bool          `yaml:"logRequests"`
	ServerTimeouts    *FileTimeouts `yaml:"serverTimeouts"`
}

// FileTimeouts is the YAML shape of ServerTimeouts.
type FileTimeouts struct {
	ReadHeader time.Duration `yaml:"readHeader"`
	Read       time.Duration `yaml:"read"`
	Write      time.Duration `yaml:"write"`
	Idle       time.Duration `yaml:"idle"`
}

// LoadConfigFile reads and decodes a FileConfig from a YAML document at
// path. Zero-valued fields keep New's built-in defaults, since WithConfig
// only overrides what was actually set.
func LoadConfigFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("bridge: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("bridge: decode config %s: %w", path, err)
	}
	return cfg, nil
}

// WithConfig applies a FileConfig on top of New's defaults, letting a
// deployment source its prefix/timeouts/logging flags from a YAML file
// (LoadConfigFile) instead of hand-written Option calls.
func WithConfig(cfg FileConfig) Option {
	return func(b *Bridge) {
		if cfg.Prefix != "" {
			b.prefix = cfg.Prefix
		}
		if cfg.ValidateResponses {
			b.validateResponses = true
		}
		if cfg.LogRequests {
			b.logRequests = true
		}
		if t := cfg.ServerTimeouts; t != nil {
			if t.ReadHeader != 0 {
				b.serverTimeouts.ReadHeader = t.ReadHeader
			}
			if t.Read != 0 {
				b.serverTimeouts.Read = t.Read
			}
			if t.Write != 0 {
				b.serverTimeouts.Write = t.Write
			}
			if t.Idle != 0 {
				b.serverTimeouts.Idle = t.Idle
			}
		}
	}
}
