// Package confloader loads and watches refstate configuration files.
package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// errNoBytes is returned by ReadBytes; overrides are read as a map.
var errNoBytes = errors.New("confloader: overrides provider has no byte form")

// overrides is a koanf.Provider over flat dotted keys such as
// "server.http.address". Keys are unflattened before merging so they
// replace single leaves instead of whole sections.
type overrides map[string]any

func (o overrides) ReadBytes() ([]byte, error) {
	return nil, errNoBytes
}

func (o overrides) Read() (map[string]any, error) {
	flat := make(map[string]any, len(o))
	for k, v := range o {
		flat[k] = v
	}
	return maps.Unflatten(flat, "."), nil
}
