package extension

// Resolver decides which automation extension gets injected into a profile.
//
// The override path is fixed at construction. Config loading is responsible
// for reading it from the environment, so resolution never consults
// process-wide state.
type Resolver struct {
	overridePath string
}

// NewResolver creates a resolver. An empty overridePath selects the bundled
// extension.
func NewResolver(overridePath string) *Resolver {
	return &Resolver{overridePath: overridePath}
}

// Resolve returns the override artifact when one is configured and the
// bundled artifact otherwise. Each call evaluates afresh; nothing is cached.
func (r *Resolver) Resolve() Artifact {
	if r != nil && r.overridePath != "" {
		return FromFile(r.overridePath)
	}
	return Bundled()
}

// OverridePath returns the configured override, or "" when none is set.
func (r *Resolver) OverridePath() string {
	if r == nil {
		return ""
	}
	return r.overridePath
}
