package suite

import (
	"evalgo.org/rmlconformance/internal/domain"
	"evalgo.org/rmlconformance/internal/provision"
)

// Registry maps fixture formats to the provisioner preparing them.
type Registry struct {
	provisioners map[domain.Format]provision.Provisioner
}

// NewRegistry creates a registry serving the file-based formats. SPARQL and
// SQL provisioners need external services and are registered by the caller.
func NewRegistry() *Registry {
	reg := &Registry{
		provisioners: make(map[domain.Format]provision.Provisioner),
	}

	for _, f := range domain.AllFormats {
		if f.IsFileBased() {
			reg.Register(f, provision.FileProvisioner{})
		}
	}

	return reg
}

// Register registers a provisioner for a format, replacing any previous one.
func (r *Registry) Register(f domain.Format, p provision.Provisioner) {
	r.provisioners[f] = p
}

// Get returns the provisioner for a format.
func (r *Registry) Get(f domain.Format) (provision.Provisioner, bool) {
	p, ok := r.provisioners[f]
	return p, ok
}

// Formats lists the registered formats in their canonical order.
func (r *Registry) Formats() []domain.Format {
	var out []domain.Format
	for _, f := range domain.AllFormats {
		if _, ok := r.provisioners[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
