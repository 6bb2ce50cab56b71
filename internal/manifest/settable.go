package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// settableKind distinguishes array from scalar settable fields.
type settableKind int

const (
	kindScalar settableKind = iota
	kindArray
)

// settableKeys whitelists the manifest fields the `set` command may
// touch. Everything else is managed through dedicated commands.
var settableKeys = map[string]settableKind{
	"agents_md.paths":    kindArray,
	"agents_md.header":   kindScalar,
	"agents_md.preamble": kindScalar,
}

// SettableKeys returns the supported keys, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set updates a whitelisted manifest field from its string form.
// Array fields split on commas.
func (m *Manifest) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q (supported: %s)",
			key, strings.Join(SettableKeys(), ", "))
	}

	var list []string
	if kind == kindArray {
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}
	}

	switch key {
	case "agents_md.paths":
		m.AgentsMD.Paths = list
	case "agents_md.header":
		m.AgentsMD.Header = value
	case "agents_md.preamble":
		m.AgentsMD.Preamble = value
	}
	return nil
}

// Get returns the current string form of a settable key.
func (m *Manifest) Get(key string) (string, error) {
	switch key {
	case "agents_md.paths":
		return strings.Join(m.AgentsMD.Paths, ","), nil
	case "agents_md.header":
		return m.AgentsMD.Header, nil
	case "agents_md.preamble":
		return m.AgentsMD.Preamble, nil
	default:
		return "", fmt.Errorf("unsupported key %q", key)
	}
}
