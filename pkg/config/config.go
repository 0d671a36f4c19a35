/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type DeviceConfig struct {
	// Address of the headband to dial. Empty means the first one
	// discovered, or the preferred entry in the device registry.
	Address string `yaml:"address,omitempty"`
	Preset  string `yaml:"preset"`
}

type StreamConfig struct {
	// HandshakeTimeoutSec is the window for the first frame to arrive
	// after the start commands are written.
	HandshakeTimeoutSec int `yaml:"handshake_timeout_sec"`
	MaxReconnects       int `yaml:"max_reconnects"`
	// BackoffBaseMs is the first reconnect delay; it doubles per
	// attempt.
	BackoffBaseMs int `yaml:"backoff_base_ms"`
	// ChunkQueueSize buffers notification chunks ahead of the decode
	// loop; RecordQueueSize buffers decoded frames ahead of the
	// recording writer.
	ChunkQueueSize  int `yaml:"chunk_queue_size"`
	RecordQueueSize int `yaml:"record_queue_size"`
}

type ApiConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type Config struct {
	Device   *DeviceConfig `yaml:"device"`
	Stream   *StreamConfig `yaml:"stream"`
	Api      *ApiConfig    `yaml:"api"`
	DataDir  string        `yaml:"data_dir"`
	LogLevel string        `yaml:"log_level"`
	filepath string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

func (c *Config) LoadConfig() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// RecordingDir is where recordings land by default.
func (c *Config) RecordingDir() string {
	return filepath.Join(c.DataDir, DefaultRecordingDir)
}

// RegistryPath is the bolt database holding known devices.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.DataDir, DefaultRegistryFile)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir)
}

func NewDefaultConfig() *Config {
	return &Config{
		Device: &DeviceConfig{
			Preset: DefaultPreset,
		},
		Stream: &StreamConfig{
			HandshakeTimeoutSec: DefaultHandshakeTimeout,
			MaxReconnects:       DefaultMaxReconnects,
			BackoffBaseMs:       DefaultBackoffBaseMs,
			ChunkQueueSize:      DefaultChunkQueueSize,
			RecordQueueSize:     DefaultRecordQueueSize,
		},
		Api: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		DataDir:  DefaultDataDir(),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}
