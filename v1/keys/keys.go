// Package keys builds the final lock-key strings written to the authority
// store. The core never interprets keys beyond equality; this package only
// covers the prefixed vs caller-specified naming modes.
package keys

import "strings"

// Separator joins the prefix and key parts.
const Separator = ":"

// Builder assembles lock keys. A zero Builder passes caller keys through
// unchanged (fully caller-specified mode).
type Builder struct {
	Prefix string
}

// Build returns the key written to the store for name.
func (b Builder) Build(name string) string {
	if b.Prefix == "" {
		return name
	}
	return b.Prefix + Separator + name
}

// Compose joins key parts with the separator. Callers deriving lock keys
// from request arguments can use it to keep naming consistent.
func Compose(parts ...string) string {
	return strings.Join(parts, Separator)
}
