package cache

// ScopedKeyer wraps a Keyer with a prefix, giving independent namespaces
// to callers sharing one cache backend (for example, separate preview
// sessions on the same server).
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated
// keys. A nil inner keyer falls back to the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// NetworkKey generates a prefixed network key.
func (k *ScopedKeyer) NetworkKey(hash string) string {
	return k.prefix + k.inner.NetworkKey(hash)
}

// PlanKey generates a prefixed plan key.
func (k *ScopedKeyer) PlanKey(networkHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(networkHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(planHash, opts)
}
