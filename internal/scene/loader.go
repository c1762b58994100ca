// Package scene resolves model identifiers to asset paths and, for
// composite scenes, a scene-graph description with named nodes and
// transforms. The assets themselves belong to the rendering backends.
package scene

import (
	"os"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"gopkg.in/yaml.v3"
)

// PlaceholderAsset is returned for unknown model identifiers so that a
// renderer always has something to show
const PlaceholderAsset = "models/placeholder.glb"

type Transform struct {
	Position [3]float64 `yaml:"position"`
	Rotation [3]float64 `yaml:"rotation"`
	Scale    [3]float64 `yaml:"scale"`
}

type Node struct {
	Name      string    `yaml:"name"`
	Transform Transform `yaml:"transform"`
}

type Model struct {
	Assets []string `yaml:"assets"`
	Nodes  []Node   `yaml:"nodes"`

	// Mixers is the number of mixer sub-entities in this scene; 0
	// means "not described here", falling back to configuration
	Mixers int `yaml:"mixers"`

	Placeholder bool `yaml:"-"`
}

type Manifest struct {
	Models map[string]Model `yaml:"models"`
}

// Load reads a manifest from a YAML file
func Load(path string) (*Manifest, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrSceneManifest, err)
	}

	manifest := &Manifest{}
	if err := yaml.Unmarshal(data, manifest); err != nil {
		return nil, errFactory.Wrap(errors.ErrSceneManifest, err)
	}

	return manifest, nil
}

// Empty returns a manifest with no models; every Resolve yields the
// placeholder
func Empty() *Manifest {
	return &Manifest{Models: map[string]Model{}}
}

// Resolve maps a model identifier to its assets and scene graph.
// Unknown identifiers return a placeholder entry and log a warning;
// they never error to the caller.
func (m *Manifest) Resolve(id string) Model {
	if m != nil && m.Models != nil {
		if model, ok := m.Models[id]; ok {
			return model
		}
	}

	logger.Warn().Str("model", id).Msg("Unknown model, using placeholder asset")

	return Model{
		Assets:      []string{PlaceholderAsset},
		Placeholder: true,
	}
}

// MixerCount returns the mixer sub-entity count for a model. The scene
// description wins over the configured fallback when it names one.
func (m *Manifest) MixerCount(id string, fallback int) int {
	if m != nil && m.Models != nil {
		if model, ok := m.Models[id]; ok && model.Mixers > 0 {
			return model.Mixers
		}
	}

	return fallback
}
