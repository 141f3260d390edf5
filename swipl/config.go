package swipl

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig holds launch defaults read from a swiplmqi.yaml file,
// used by the CLI and by applications that prefer file configuration
// over options.
type FileConfig struct {
	Swipl               string   `yaml:"swipl"`
	Script              string   `yaml:"script"`
	QueryTimeoutSeconds float64  `yaml:"query_timeout_seconds"`
	OutputFile          string   `yaml:"output_file"`
	ExtraArgs           []string `yaml:"extra_args"`
}

// LoadFileConfig loads a yaml config file. A missing file is not an
// error and yields an empty config.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Options converts the file values into server options, skipping
// anything left unset.
func (c *FileConfig) Options() []ServerOption {
	var opts []ServerOption
	if c.Swipl != "" {
		opts = append(opts, WithSwiplPath(c.Swipl))
	}
	if c.Script != "" {
		opts = append(opts, WithScriptPath(c.Script))
	}
	if c.QueryTimeoutSeconds > 0 {
		opts = append(opts, WithQueryTimeout(time.Duration(c.QueryTimeoutSeconds*float64(time.Second))))
	}
	if c.OutputFile != "" {
		opts = append(opts, WithOutputFile(c.OutputFile))
	}
	if len(c.ExtraArgs) > 0 {
		opts = append(opts, WithExtraArgs(c.ExtraArgs...))
	}
	return opts
}
