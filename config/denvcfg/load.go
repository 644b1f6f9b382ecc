package denvcfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/compose-spec/compose-go/v2/template"
	"gopkg.in/yaml.v3"

	"github.com/denvops/denv/domain/model"
)

// ConfigFileName is the configuration document name inside a project directory.
const ConfigFileName = "denv.yml"

// reservedAliases are the container-side storage-role variables that
// substitution must leave untouched.
var reservedAliases = func() map[string]bool {
	m := map[string]bool{}
	for _, role := range model.StorageRoles {
		m[model.EnvAlias(role)] = true
	}
	return m
}()

// Load reads the YAML document at path, applies environment-variable
// substitution from the given snapshot and returns the deserialized Root.
// Semantic validation is handled separately by Validate.
func Load(path string, env map[string]string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	cfg, err := Parse(data, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Environ snapshots the process environment as a substitution map.
func Environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Parse decodes a YAML document after substituting ${NAME} and
// ${NAME:-default} references in every string scalar. The environment is an
// injected immutable snapshot, never the ambient process environment, so the
// transformation stays pure and testable.
func Parse(data []byte, env map[string]string) (*Root, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	mapping := func(name string) (string, bool) {
		if reservedAliases[name] {
			// Storage-role aliases resolve inside the container, never at
			// configure time. Re-emitting the reference keeps it intact for
			// the lifecycle validator and for shell expansion at runtime.
			return "${" + name + "}", true
		}
		v, ok := env[name]
		return v, ok
	}
	if err := substituteNode(&doc, mapping); err != nil {
		return nil, err
	}
	var cfg Root
	if err := doc.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to structure YAML: %w", err)
	}
	return &cfg, nil
}

// substituteNode walks the YAML tree and substitutes every string scalar.
func substituteNode(n *yaml.Node, mapping template.Mapping) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		out, err := substituteString(n.Value, mapping)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		n.Value = out
	}
	for _, c := range n.Content {
		if err := substituteNode(c, mapping); err != nil {
			return err
		}
	}
	return nil
}

// substituteString applies ${NAME} / ${NAME:-default} substitution with
// shell-like semantics. Only the braced form is substitution syntax: a bare
// $VAR (script-entry arguments rely on these) must pass through untouched
// for the shell to expand at execution time, so every "$" not followed by
// "{" is protected before handing the string to the compose interpolation
// engine.
func substituteString(s string, mapping template.Mapping) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && (i+1 >= len(s) || s[i+1] != '{') {
			b.WriteString("$$")
			continue
		}
		b.WriteByte(s[i])
	}
	return template.Substitute(b.String(), mapping)
}
