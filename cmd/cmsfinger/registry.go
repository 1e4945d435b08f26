package main

import (
	"fmt"

	"github.com/nao1215/cmsfinger/internal/fingerprint"
)

// ruleFile records which fingerprints a rule file contributed.
type ruleFile struct {
	Path  string
	Names []string
}

// loadRegistry returns the built-in registry extended with the rule files
// in order. A name already registered by an earlier source is an error.
func loadRegistry(files []string) (*fingerprint.Registry, []ruleFile, error) {
	reg := fingerprint.Default()
	loaded := make([]ruleFile, 0, len(files))

	for _, path := range files {
		before := reg.Len()
		if _, err := fingerprint.RegisterFile(reg, path); err != nil {
			return nil, nil, fmt.Errorf("failed to load fingerprints: %w", err)
		}
		names := reg.Names()
		loaded = append(loaded, ruleFile{Path: path, Names: names[before:]})
	}
	return reg, loaded, nil
}
