// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package formatters renders a finished run for different consumers.
// Concrete formatters register themselves into the default registry via
// blank imports.
package formatters

import (
	"fmt"
	"strings"

	"sheetscan/internal/detector"
)

// Options configures formatter output.
type Options struct {
	Verbose bool // include per-row details
	NoColor bool // disable terminal colors
}

// Formatter renders extraction results and run statistics.
type Formatter interface {
	Format(results []detector.ExtractionResult, stats *detector.Statistics, options Options) (string, error)

	// Name is the identifier used on the command line (e.g. "text").
	Name() string

	// Description is a one-line summary for help output.
	Description() string

	// FileExtension is the recommended extension for saved output.
	FileExtension() string
}

// Registry holds registered formatters by name.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) {
	r.formatters[f.Name()] = f
}

// Get retrieves a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	f, ok := r.formatters[name]
	return f, ok
}

// List returns all registered formatter names.
func (r *Registry) List() []string {
	var names []string
	for name := range r.formatters {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(f Formatter) {
	DefaultRegistry.Register(f)
}

// Get retrieves a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List lists the default registry's formatter names.
func List() []string {
	return DefaultRegistry.List()
}

// Export formats a run with the named formatter.
func Export(format string, results []detector.ExtractionResult, stats *detector.Statistics, options Options) (string, error) {
	f, ok := Get(format)
	if !ok {
		return "", fmt.Errorf("unsupported format %q, available formats: %s", format, strings.Join(List(), ", "))
	}
	return f.Format(results, stats, options)
}
