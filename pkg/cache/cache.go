// Package cache stores rendered artifacts keyed by the inputs that
// produced them. All pipeline stages are pure, so a hit is always safe to
// reuse; the cache only ever trades recomputation for storage.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented store with optional expiry.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// PlanKeyOpts are the plan-affecting settings that become part of a plan
// cache key.
type PlanKeyOpts struct {
	Mode        string
	Intensity   string
	Synapses    []string
	Resolution  int
	PatchSize   float64
	Margin      float64
	LegendTicks int
	Global      bool
	Symmetric   bool
	Limits      *[2]float64
	Ticks       []float64
}

// ArtifactKeyOpts are the render settings that become part of an
// artifact cache key.
type ArtifactKeyOpts struct {
	Format      string
	PixelsPerMM float64
	Labels      bool
}

// Keyer derives cache keys from content hashes and options. Implementations
// must be deterministic: equal inputs yield equal keys.
type Keyer interface {
	// NetworkKey keys a parsed network description by its content hash.
	NetworkKey(hash string) string

	// PlanKey keys a resolved plot plan by the network hash and the
	// settings that shaped it.
	PlanKey(networkHash string, opts PlanKeyOpts) string

	// ArtifactKey keys rendered output by the plan inputs and format.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes option structs into namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) NetworkKey(hash string) string {
	return hashKey("network", hash)
}

func (DefaultKeyer) PlanKey(networkHash string, opts PlanKeyOpts) string {
	return hashKey("plan", networkHash, opts)
}

func (DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}
