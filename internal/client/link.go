// internal/client/link.go

package client

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultLinkTemplate is the rendezvous URL template used when none is
// configured. The %s is replaced with a freshly generated identifier.
const DefaultLinkTemplate = "https://meet.hershield.app/%s"

// LinkMinter mints rendezvous links at alert time. There is no
// server-side registry of links; uniqueness rests entirely on the
// random identifier, and a collision between two mints is accepted as
// negligible-probability.
type LinkMinter struct {
	Template string
}

// Mint returns a fresh rendezvous link.
func (m LinkMinter) Mint() string {
	template := m.Template
	if template == "" {
		template = DefaultLinkTemplate
	}
	return fmt.Sprintf(template, uuid.New().String())
}
