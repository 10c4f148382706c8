package remote

import (
	"github.com/athleteai/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// scopedCredential holds the run's identity in a process-local in-memory
// agent. The key lives only for the duration of one run: release empties the
// agent and wipes the PEM buffer, and must be called on every exit path.
//
// The credential owns a private copy of the PEM. The target configuration is
// read-only and shared across runs, so release must never touch the caller's
// buffer.
type scopedCredential struct {
	keyring agent.Agent
	pem     []byte
}

func newScopedCredential(pemKey []byte) (*scopedCredential, error) {
	pemCopy := append([]byte(nil), pemKey...)

	raw, err := ssh.ParseRawPrivateKey(pemCopy)
	if err != nil {
		return nil, goerr.Wrap(err, "unable to parse private key",
			goerr.T(types.ErrTagConfig),
		)
	}

	keyring := agent.NewKeyring()
	if err := keyring.Add(agent.AddedKey{PrivateKey: raw}); err != nil {
		return nil, goerr.Wrap(err, "failed to load private key into keyring",
			goerr.T(types.ErrTagConfig),
		)
	}

	return &scopedCredential{keyring: keyring, pem: pemCopy}, nil
}

// authMethod returns the SSH auth method backed by the scoped keyring.
func (c *scopedCredential) authMethod() ssh.AuthMethod {
	return ssh.PublicKeysCallback(c.keyring.Signers)
}

// release discards the key material. Safe to call more than once.
func (c *scopedCredential) release() {
	_ = c.keyring.RemoveAll()
	for i := range c.pem {
		c.pem[i] = 0
	}
}
