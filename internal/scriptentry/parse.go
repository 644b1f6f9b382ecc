// Package scriptentry splits lifecycle script-entry strings into a script
// path token and an opaque argument remainder.
//
// Only the first token is parsed structurally; the remainder is passed
// through verbatim. Re-tokenizing the arguments and re-joining them with a
// different quoting convention is what turns $VAR references into literal
// text when the wrapper finally runs, so the arguments are deliberately
// never touched.
package scriptentry

import (
	"fmt"
	"strings"

	"github.com/denvops/denv/domain/model"
)

// Parse splits raw into a script path and argument remainder. The path is the
// first whitespace-delimited, quote-aware token with its quotes stripped;
// everything after it is returned verbatim with only the separating
// whitespace removed.
func Parse(raw string) (model.ScriptEntry, error) {
	s := strings.TrimLeft(raw, " \t")
	if s == "" {
		return model.ScriptEntry{}, fmt.Errorf("empty script entry")
	}
	var path strings.Builder
	var quote byte
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				path.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t':
			goto done
		default:
			path.WriteByte(c)
		}
	}
done:
	if quote != 0 {
		return model.ScriptEntry{}, fmt.Errorf("unterminated quote in script entry %q", raw)
	}
	if path.Len() == 0 {
		return model.ScriptEntry{}, fmt.Errorf("empty script path in entry %q", raw)
	}
	return model.ScriptEntry{
		Raw:  raw,
		Path: path.String(),
		Args: strings.TrimLeft(s[i:], " \t"),
	}, nil
}

// ParseAll parses each entry of a lifecycle hook list, reporting the hook
// name and entry index on failure.
func ParseAll(hook string, entries []string) ([]model.ScriptEntry, error) {
	out := make([]model.ScriptEntry, 0, len(entries))
	for i, raw := range entries {
		e, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", hook, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
