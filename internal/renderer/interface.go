// Package renderer defines the uniform lifecycle contract every
// rendering backend is wrapped in, plus the registry the coordinator
// owns. The 3D engines themselves are external collaborators; adapters
// are the narrow interface to them.
package renderer

import (
	"context"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
)

// Options carries everything an adapter needs to come up
type Options struct {
	// Container identifies the render surface the adapter attaches to
	Container string

	// ModelID selects the initial model/scene
	ModelID string

	// OnReady is invoked once the adapter can accept twin updates
	OnReady func()
}

// Adapter is the lifecycle contract for one rendering backend
type Adapter interface {
	Initialize(ctx context.Context, opts Options) error
	UpdateFromTwin(state *twin.State)
	Label() string
}

// ModelChanger is the optional capability of switching models without a
// full teardown. Absence of the capability is a typed, intentional
// option; callers check with a type assertion.
type ModelChanger interface {
	ChangeModel(modelID string) error
}

// Cleaner is the optional capability of releasing adapter resources
type Cleaner interface {
	Cleanup()
}

// FrameRecorder receives one tick per rendered frame
type FrameRecorder interface {
	FrameTick()
}

// Factory builds one adapter instance
type Factory func() (Adapter, error)
