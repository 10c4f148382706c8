package remote

import (
	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/athleteai/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// hostKeyCallback builds the host identity policy for the target. The
// default verifies against an OpenSSH known_hosts file; skipping
// verification requires the explicit insecure flag on the target.
func hostKeyCallback(target *model.Target) (ssh.HostKeyCallback, error) {
	if target.InsecureSkipHostKeyVerify {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicit opt-in
	}

	callback, err := knownhosts.New(target.KnownHostsPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load known_hosts file",
			goerr.T(types.ErrTagConfig),
			goerr.V("path", target.KnownHostsPath),
		)
	}
	return callback, nil
}
