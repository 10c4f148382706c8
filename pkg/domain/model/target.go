package model

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/athleteai/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Default timeouts applied by Validate when the user leaves them unset.
const (
	DefaultSSHPort        = 22
	DefaultScript         = "deploy.sh"
	DefaultDialTimeout    = 10 * time.Second
	DefaultCommandTimeout = 5 * time.Minute
)

// Target describes the remote host a run deploys to. It is supplied as
// configuration and read-only to the deployment flow.
type Target struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	User       string `toml:"user"`
	DeployPath string `toml:"deploy_path"`
	Script     string `toml:"script"`

	// PrivateKey is the PEM-encoded identity used for the run. The masq tag
	// redacts it if the struct ever reaches a log record.
	PrivateKey []byte `toml:"-" masq:"secret"`

	// KnownHostsPath points at an OpenSSH known_hosts file used to verify
	// the remote host identity. Required unless InsecureSkipHostKeyVerify
	// is set.
	KnownHostsPath string `toml:"known_hosts"`

	// InsecureSkipHostKeyVerify disables host identity verification. This
	// trades man-in-the-middle protection for availability and must be an
	// explicit choice; the default is verification enabled.
	InsecureSkipHostKeyVerify bool `toml:"insecure_skip_host_key_verify"`

	// Timeouts are settable from flags only; TOML has no native duration.
	DialTimeout    time.Duration `toml:"-"`
	CommandTimeout time.Duration `toml:"-"`
}

// Addr returns the dialable "host:port" address of the target.
func (t *Target) Addr() string {
	port := t.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// ScriptName returns the configured update script name or the default.
func (t *Target) ScriptName() string {
	if t.Script == "" {
		return DefaultScript
	}
	return t.Script
}

// Validate checks that every parameter needed to open a connection is
// present, and fills in defaults. It must pass before any network I/O is
// attempted; a missing secret is a fatal configuration error, not a
// retryable condition.
func (t *Target) Validate() error {
	var missing []string
	if t.Host == "" {
		missing = append(missing, "host")
	}
	if t.User == "" {
		missing = append(missing, "user")
	}
	if t.DeployPath == "" {
		missing = append(missing, "deploy path")
	}
	if len(t.PrivateKey) == 0 {
		missing = append(missing, "private key")
	}
	if len(missing) > 0 {
		return goerr.New(
			"incomplete deploy target configuration, missing: "+strings.Join(missing, ", "),
			goerr.V("missing", missing),
			goerr.T(types.ErrTagConfig),
		)
	}

	if !t.InsecureSkipHostKeyVerify && t.KnownHostsPath == "" {
		return goerr.New("host key verification is enabled but no known_hosts file is configured",
			goerr.T(types.ErrTagConfig),
		)
	}

	if t.DialTimeout <= 0 {
		t.DialTimeout = DefaultDialTimeout
	}
	if t.CommandTimeout <= 0 {
		t.CommandTimeout = DefaultCommandTimeout
	}
	return nil
}
