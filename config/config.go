// Package config loads a device's static topology (vertex tree, pool
// size, hold quotas) from YAML using koanf, the way a simulated or
// real OSAP device would be provisioned without hand-writing the tree
// in Go for every run.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// VertexSpec describes one vertex in a device's tree, recursively.
type VertexSpec struct {
	Name     string       `koanf:"name"`
	Kind     string       `koanf:"kind"` // root, generic, endpoint, rpc, port, bus
	MaxHold  int          `koanf:"max_hold"`
	Address  uint16       `koanf:"address"`  // bus vertices: own rx address
	Channels []uint       `koanf:"channels"` // bus vertices: subscribed broadcast channels
	Children []VertexSpec `koanf:"children"`
}

// DeviceSpec is the top-level document a device's YAML config
// describes.
type DeviceSpec struct {
	PoolSize int        `koanf:"pool_size"`
	Root     VertexSpec `koanf:"root"`
}

// DefaultPoolSize matches the reference MTU/pool sizing a small
// device runs with when a config omits pool_size.
const DefaultPoolSize = 32

// Load reads and parses a device topology document from path.
func Load(path string) (DeviceSpec, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return DeviceSpec{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	var spec DeviceSpec
	if err := k.Unmarshal("", &spec); err != nil {
		return DeviceSpec{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if spec.PoolSize == 0 {
		spec.PoolSize = DefaultPoolSize
	}
	return spec, nil
}
