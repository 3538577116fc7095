package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into a temporary struct with YAML tags
	var yamlConfig struct {
		InputDir   string          `yaml:"input_dir"`
		OutputDir  string          `yaml:"output_dir"`
		Endmembers string          `yaml:"endmembers,omitempty"`
		Thresholds []ThresholdData `yaml:"thresholds,omitempty"`
		Solver     SolverData      `yaml:"solver,omitempty"`
		Workers    int             `yaml:"workers,omitempty"`
		Catalog    string          `yaml:"catalog,omitempty"`
		Listen     string          `yaml:"listen,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{
		InputDir:       yamlConfig.InputDir,
		OutputDir:      yamlConfig.OutputDir,
		EndmembersPath: yamlConfig.Endmembers,
		Thresholds:     yamlConfig.Thresholds,
		Solver:         yamlConfig.Solver,
		Workers:        yamlConfig.Workers,
		Catalog:        yamlConfig.Catalog,
		Listen:         yamlConfig.Listen,
	}

	if len(config.Thresholds) == 0 {
		config.Thresholds = DefaultThresholds()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
