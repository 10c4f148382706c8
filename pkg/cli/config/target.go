package config

import (
	"os"
	"time"

	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/athleteai/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Target holds deploy target configuration. Connection parameters can come
// from a TOML file, flags, or environment variables; flags and env override
// the file. The private key itself is only ever accepted as a secret (inline
// PEM via env, or a file path), never from the TOML file.
type Target struct {
	ConfigPath string

	Host       string
	Port       int64
	User       string
	DeployPath string
	Script     string

	PrivateKey     string `masq:"secret"`
	PrivateKeyPath string

	KnownHostsPath            string
	InsecureSkipHostKeyVerify bool

	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

// Flags returns CLI flags for deploy target configuration
func (c *Target) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "target-config",
			Usage:       "Path to a TOML file describing the deploy target",
			Destination: &c.ConfigPath,
			Sources:     cli.EnvVars("DROVER_TARGET_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "host",
			Usage:       "Deploy target host",
			Destination: &c.Host,
			Sources:     cli.EnvVars("DROVER_HOST"),
		},
		&cli.Int64Flag{
			Name:        "port",
			Usage:       "Deploy target SSH port",
			Destination: &c.Port,
			Sources:     cli.EnvVars("DROVER_PORT"),
		},
		&cli.StringFlag{
			Name:        "user",
			Usage:       "Login user on the deploy target",
			Destination: &c.User,
			Sources:     cli.EnvVars("DROVER_USER"),
		},
		&cli.StringFlag{
			Name:        "deploy-path",
			Usage:       "Working directory on the deploy target",
			Destination: &c.DeployPath,
			Sources:     cli.EnvVars("DROVER_DEPLOY_PATH"),
		},
		&cli.StringFlag{
			Name:        "script",
			Usage:       "Update script name inside the deploy path",
			Destination: &c.Script,
			Sources:     cli.EnvVars("DROVER_SCRIPT"),
		},
		&cli.StringFlag{
			Name:        "ssh-key",
			Usage:       "PEM-encoded private key for the deploy target",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("DROVER_SSH_KEY"),
		},
		&cli.StringFlag{
			Name:        "ssh-key-path",
			Usage:       "Path to the private key file (alternative to --ssh-key)",
			Destination: &c.PrivateKeyPath,
			Sources:     cli.EnvVars("DROVER_SSH_KEY_PATH"),
		},
		&cli.StringFlag{
			Name:        "known-hosts",
			Usage:       "Path to a known_hosts file for host key verification",
			Destination: &c.KnownHostsPath,
			Sources:     cli.EnvVars("DROVER_KNOWN_HOSTS"),
		},
		&cli.BoolFlag{
			Name:        "insecure-skip-host-key-verify",
			Usage:       "Skip host key verification (NOT recommended)",
			Destination: &c.InsecureSkipHostKeyVerify,
			Sources:     cli.EnvVars("DROVER_INSECURE_SKIP_HOST_KEY_VERIFY"),
		},
		&cli.DurationFlag{
			Name:        "dial-timeout",
			Usage:       "Timeout for establishing the SSH connection",
			Destination: &c.DialTimeout,
			Sources:     cli.EnvVars("DROVER_DIAL_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "command-timeout",
			Usage:       "Timeout for the remote update script",
			Destination: &c.CommandTimeout,
			Sources:     cli.EnvVars("DROVER_COMMAND_TIMEOUT"),
		},
	}
}

// Build assembles and validates the deploy target. Validation happens here,
// before any network I/O: a missing secret or connection parameter is a
// fatal configuration error.
func (c *Target) Build() (*model.Target, error) {
	target := &model.Target{}

	if c.ConfigPath != "" {
		data, err := os.ReadFile(c.ConfigPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read target config file",
				goerr.T(types.ErrTagConfig),
				goerr.V("path", c.ConfigPath),
			)
		}
		if err := toml.Unmarshal(data, target); err != nil {
			return nil, goerr.Wrap(err, "failed to parse target config file",
				goerr.T(types.ErrTagConfig),
				goerr.V("path", c.ConfigPath),
			)
		}
	}

	if c.Host != "" {
		target.Host = c.Host
	}
	if c.Port != 0 {
		target.Port = int(c.Port)
	}
	if c.User != "" {
		target.User = c.User
	}
	if c.DeployPath != "" {
		target.DeployPath = c.DeployPath
	}
	if c.Script != "" {
		target.Script = c.Script
	}
	if c.KnownHostsPath != "" {
		target.KnownHostsPath = c.KnownHostsPath
	}
	if c.InsecureSkipHostKeyVerify {
		target.InsecureSkipHostKeyVerify = true
	}
	if c.DialTimeout != 0 {
		target.DialTimeout = c.DialTimeout
	}
	if c.CommandTimeout != 0 {
		target.CommandTimeout = c.CommandTimeout
	}

	key, err := c.privateKey()
	if err != nil {
		return nil, err
	}
	target.PrivateKey = key

	if err := target.Validate(); err != nil {
		return nil, err
	}
	return target, nil
}

func (c *Target) privateKey() ([]byte, error) {
	if c.PrivateKey != "" {
		return []byte(c.PrivateKey), nil
	}
	if c.PrivateKeyPath == "" {
		return nil, nil
	}

	key, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read private key file",
			goerr.T(types.ErrTagConfig),
			goerr.V("path", c.PrivateKeyPath),
		)
	}
	return key, nil
}
