package commands

import "github.com/arthur-debert/nmm/pkg/config"

// InitConfig writes the effective configuration to path.
func InitConfig(env Env, path string, force bool) error {
	return config.WriteUserConfig(env.Fs, path, env.Config, force)
}
