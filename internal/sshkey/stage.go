package sshkey

import (
	"os"
	"path/filepath"

	"github.com/denvops/denv/internal/naming"
)

// StagedKey is one key file scheduled for the generated keys directory.
type StagedKey struct {
	// Path is the on-disk destination under the stage keys directory.
	Path string
	Data []byte
	// Mode is restrictive for private-key-equivalent files.
	Mode os.FileMode
}

// Stage computes the staged key files of one user under dir. Filenames derive
// from the username so no two users collide. Nothing is written here; the
// emitter writes all artifacts in one pass after validation.
func Stage(dir string, m *Material) []StagedKey {
	var out []StagedKey
	name := m.User.Name
	if len(m.Pubkey) > 0 {
		out = append(out, StagedKey{
			Path: filepath.Join(dir, naming.KeyFileName(name, "pub")),
			Data: ensureNewline(m.Pubkey),
			Mode: 0o644,
		})
	}
	if len(m.Privkey) > 0 {
		out = append(out, StagedKey{
			Path: filepath.Join(dir, naming.KeyFileName(name, "key")),
			Data: ensureNewline(m.Privkey),
			Mode: 0o600,
		})
	}
	if len(m.DerivedPubkey) > 0 {
		out = append(out, StagedKey{
			Path: filepath.Join(dir, naming.KeyFileName(name, "derived.pub")),
			Data: ensureNewline(m.DerivedPubkey),
			Mode: 0o644,
		})
	}
	return out
}

// AuthorizedKeys renders the authorized_keys payload of one user: the
// explicit public key and the derived one, independently, in that order.
func AuthorizedKeys(m *Material) []byte {
	var out []byte
	if len(m.Pubkey) > 0 {
		out = append(out, ensureNewline(m.Pubkey)...)
	}
	if len(m.DerivedPubkey) > 0 {
		out = append(out, ensureNewline(m.DerivedPubkey)...)
	}
	return out
}

func ensureNewline(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	return append(append([]byte(nil), b...), '\n')
}
