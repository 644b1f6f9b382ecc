// Package sshkey resolves the key-source fields of configured SSH users to
// concrete key material and stages it into the generated keys directory.
//
// Supplied public and private keys are never assumed to be a matching pair:
// an explicit public key is trusted as-is, and when a private key is present
// a public key is derived from it and trusted in addition. No pairing
// verification is ever attempted.
package sshkey

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	"github.com/denvops/denv/domain/model"
)

// key discovery order under the invoking user's ~/.ssh, matching the
// historical openssh default identity precedence.
var discoveryNames = []string{"id_rsa", "id_dsa", "id_ecdsa", "id_ed25519"}

// Resolver turns key-source field values into byte payloads. HomeDir and
// InstallRoot are injected so resolution stays testable without touching the
// real invoking account.
type Resolver struct {
	// HomeDir is the invoking user's home directory, used for "~" discovery.
	HomeDir string
	// InstallRoot anchors relative key paths (legacy behavior).
	InstallRoot string
}

// Material is the resolved key payloads of one user.
type Material struct {
	User model.SSHUser
	// Pubkey is the explicitly supplied public key, if any.
	Pubkey []byte
	// Privkey is the supplied private key, if any, staged verbatim.
	Privkey []byte
	// DerivedPubkey is the public key derived from Privkey in authorized_keys
	// form. Nil when no private key is given or the key is encrypted.
	DerivedPubkey []byte
	// Encrypted reports that Privkey is passphrase-protected. The key is
	// staged as-is and no public key is derived; this is a capability
	// reduction, not an error.
	Encrypted bool
}

// Resolve produces the key material for one user. Mutual-exclusion and
// at-least-one-auth violations are reported with the username and the
// conflicting field names.
func (r *Resolver) Resolve(u model.SSHUser) (*Material, error) {
	if u.PubkeyFile != "" && u.PubkeyText != "" {
		return nil, fmt.Errorf("ssh user %s: pubkey_file and pubkey_text are mutually exclusive", u.Name)
	}
	if u.PrivkeyFile != "" && u.PrivkeyText != "" {
		return nil, fmt.Errorf("ssh user %s: privkey_file and privkey_text are mutually exclusive", u.Name)
	}
	if u.Password == "" && !u.HasKeyMaterial() {
		return nil, fmt.Errorf("ssh user %s: no password and no key material, user would be unreachable", u.Name)
	}

	m := &Material{User: u}
	var err error
	if u.PubkeyFile != "" {
		if m.Pubkey, err = r.readKey(u.PubkeyFile, true); err != nil {
			return nil, fmt.Errorf("ssh user %s: pubkey_file: %w", u.Name, err)
		}
	}
	if u.PubkeyText != "" {
		m.Pubkey = []byte(u.PubkeyText)
	}
	if u.PrivkeyFile != "" {
		if m.Privkey, err = r.readKey(u.PrivkeyFile, false); err != nil {
			return nil, fmt.Errorf("ssh user %s: privkey_file: %w", u.Name, err)
		}
	}
	if u.PrivkeyText != "" {
		m.Privkey = []byte(u.PrivkeyText)
	}

	if len(m.Privkey) > 0 {
		signer, derr := ssh.ParsePrivateKey(m.Privkey)
		var passErr *ssh.PassphraseMissingError
		switch {
		case derr == nil:
			m.DerivedPubkey = ssh.MarshalAuthorizedKey(signer.PublicKey())
		case errors.As(derr, &passErr):
			// Encrypted keys are never auto-decrypted.
			m.Encrypted = true
		default:
			return nil, fmt.Errorf("ssh user %s: private key: %w", u.Name, derr)
		}
	}
	return m, nil
}

// readKey resolves one key-source field value to bytes. "~" triggers system
// key discovery, absolute paths are read directly, relative paths are
// anchored at the installation root.
func (r *Resolver) readKey(value string, public bool) ([]byte, error) {
	path := value
	switch {
	case value == "~":
		found, err := r.discover(public)
		if err != nil {
			return nil, err
		}
		path = found
	case filepath.IsAbs(value):
	default:
		path = filepath.Join(r.InstallRoot, value)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	return data, nil
}

// discover returns the first default identity under HomeDir/.ssh, checking
// the public (.pub) or private counterpart depending on the field kind.
func (r *Resolver) discover(public bool) (string, error) {
	dir := filepath.Join(r.HomeDir, ".ssh")
	for _, base := range discoveryNames {
		name := base
		if public {
			name += ".pub"
		}
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no default key found under %s", dir)
}
