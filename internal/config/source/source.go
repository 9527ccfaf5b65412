// Package source provides configuration source abstractions and implementations
package source

import (
	"werss-client/internal/config/schema"
)

// Source is the interface for configuration sources
// Each source loads configuration into a strongly-typed Root structure
type Source interface {
	// Name returns the source name for logging and error messages
	Name() string

	// Priority returns the source priority (higher = more important)
	Priority() int

	// LoadInto loads configuration into the provided config structure
	// Only values present in the source are set
	LoadInto(cfg *schema.Root) error
}

// SourcePriority constants
const (
	PriorityDefaults = 1
	PriorityYAML     = 2
	PriorityDotEnv   = 3
	PriorityEnv      = 4
	PriorityCLI      = 5
)

// ByPriority implements sort.Interface for []Source based on Priority
type ByPriority []Source

func (a ByPriority) Len() int           { return len(a) }
func (a ByPriority) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ByPriority) Less(i, j int) bool { return a[i].Priority() < a[j].Priority() }

// CLISource applies command line overrides after every other source
type CLISource struct {
	apply func(cfg *schema.Root)
}

// NewCLISource creates a CLISource from an override function
func NewCLISource(apply func(cfg *schema.Root)) *CLISource {
	return &CLISource{apply: apply}
}

// Name returns the source name
func (s *CLISource) Name() string { return "cli" }

// Priority returns the source priority
func (s *CLISource) Priority() int { return PriorityCLI }

// LoadInto applies the overrides
func (s *CLISource) LoadInto(cfg *schema.Root) error {
	if s.apply != nil {
		s.apply(cfg)
	}
	return nil
}
