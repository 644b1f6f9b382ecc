package model

import "fmt"

// EnvMap is an order-preserving mapping of environment variable names to
// values. The configuration document stores environment variables as a list
// of KEY=VALUE strings; converting to a map must not lose the document order
// because the emitter renders the list back verbatim.
type EnvMap struct {
	keys   []string
	values map[string]string
}

// NewEnvMap builds an EnvMap from a KEY=VALUE list. A duplicate key or an
// entry without "=" is an error naming the offending entry.
func NewEnvMap(entries []string) (EnvMap, error) {
	m := EnvMap{values: map[string]string{}}
	for i, e := range entries {
		k, v, ok := cutEnvEntry(e)
		if !ok {
			return EnvMap{}, fmt.Errorf("environment[%d]: %q is not KEY=VALUE", i, e)
		}
		if _, dup := m.values[k]; dup {
			return EnvMap{}, fmt.Errorf("environment[%d]: duplicate key %q", i, k)
		}
		m.keys = append(m.keys, k)
		m.values[k] = v
	}
	return m, nil
}

func cutEnvEntry(e string) (key, value string, ok bool) {
	for i := 0; i < len(e); i++ {
		if e[i] == '=' {
			if i == 0 {
				return "", "", false
			}
			return e[:i], e[i+1:], true
		}
	}
	return "", "", false
}

// Len returns the number of entries.
func (m EnvMap) Len() int { return len(m.keys) }

// Keys returns the variable names in document order.
func (m EnvMap) Keys() []string { return append([]string(nil), m.keys...) }

// Get returns the value for key.
func (m EnvMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// List renders the mapping back to a KEY=VALUE list in document order.
func (m EnvMap) List() []string {
	out := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, k+"="+m.values[k])
	}
	return out
}
