package domain

// Descriptor parameterizes the claim/release/status workflow for one work
// item kind. The two kinds share every controller; only the descriptor
// differs.
type Descriptor struct {
	// Name is the URL segment identifying the kind ("chamados" or "sars").
	Name string

	// BaseURL of the upstream service owning items of this kind.
	BaseURL string

	// RequiresClosingNote forces a non-empty observation before an item
	// may be completed. SARs require one; chamados close directly.
	RequiresClosingNote bool

	// VisualOnlyWrites asks the upstream service to skip its secondary
	// system writes (the apenas_visual flag) on claim and release.
	VisualOnlyWrites bool

	// DefaultPriority is assumed when a record carries none.
	DefaultPriority Priority
}

// Registry resolves descriptors by kind name.
type Registry map[string]Descriptor

// Get looks up a descriptor.
func (r Registry) Get(name string) (Descriptor, bool) {
	d, ok := r[name]
	return d, ok
}

const (
	KindChamados = "chamados"
	KindSars     = "sars"
)

// NewRegistry wires the two built-in kinds against their service URLs.
func NewRegistry(chamadoBaseURL, sarBaseURL string) Registry {
	return Registry{
		KindChamados: {
			Name:                KindChamados,
			BaseURL:             chamadoBaseURL,
			RequiresClosingNote: false,
			VisualOnlyWrites:    true,
			DefaultPriority:     PriorityLow,
		},
		KindSars: {
			Name:                KindSars,
			BaseURL:             sarBaseURL,
			RequiresClosingNote: true,
			VisualOnlyWrites:    false,
			DefaultPriority:     PriorityNormal,
		},
	}
}
