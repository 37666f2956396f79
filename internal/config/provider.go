// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects the file a Provider reads. With both fields empty
	// the platform directory is searched, then the working directory.
	LoadOptions struct {
		// ConfigFilePath is the --config flag; the file must exist.
		ConfigFilePath string
		// ConfigDirPath replaces the platform configuration directory.
		ConfigDirPath string
	}

	// Provider yields the effective configuration for one command run.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// ProviderFunc adapts a function to Provider.
	ProviderFunc func(ctx context.Context, opts LoadOptions) (*Config, error)
)

// Load calls f.
func (f ProviderFunc) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return f(ctx, opts)
}

// NewProvider returns the Provider that merges defaults, the CUE file and
// VERSIONFETCH_* variables. Config.Source is set to the file that was read.
func NewProvider() Provider {
	return ProviderFunc(func(ctx context.Context, opts LoadOptions) (*Config, error) {
		cfg, path, err := loadWithOptions(ctx, opts)
		if err != nil {
			return nil, err
		}
		cfg.Source = path
		return cfg, nil
	})
}
