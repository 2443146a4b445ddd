// Package templates holds the starter worker scripts written by init.
package templates

import (
	"embed"
	"fmt"
	"path"
)

// Default is the template used when none is named
const Default = "edge"

//go:embed scripts/*.js
var scripts embed.FS

var names = []string{"edge", "api", "static"}

// Names lists the available templates, default first
func Names() []string {
	return append([]string(nil), names...)
}

// Valid reports whether name is a known template
func Valid(name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Get returns the script of the named template. An empty name selects the
// default template.
func Get(name string) ([]byte, error) {
	if name == "" {
		name = Default
	}
	if !Valid(name) {
		return nil, fmt.Errorf("unknown template %q (available: %v)", name, names)
	}

	return scripts.ReadFile(path.Join("scripts", name+".js"))
}
