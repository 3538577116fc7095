package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables honored by the env backend. PROJECT_DIRECTORY
// plus the folder names mirror the layout the field tooling has always
// used; the NIRSPEC_* variables cover settings that never existed in
// the environment-only days and are optional.
const (
	EnvProjectDirectory = "PROJECT_DIRECTORY"
	EnvInputFolderName  = "INPUT_FOLDER_NAME"
	EnvOutputFolderName = "OUTPUT_FOLDER_NAME"
	EnvEndmembersPath   = "ENDMEMBERS_PATH"
	EnvWorkers          = "NIRSPEC_WORKERS"
	EnvCatalog          = "NIRSPEC_CATALOG"
	EnvListen           = "NIRSPEC_LISTEN"
)

// EnvProvider implements ConfigProvider on top of environment variables,
// optionally seeded from a .env file.
type EnvProvider struct {
	dotenvPath string
}

// NewEnvProvider creates an environment-variable configuration provider.
// dotenvPath may be empty; when set and the file exists, it is loaded
// into the process environment first (existing variables win).
func NewEnvProvider(dotenvPath string) *EnvProvider {
	return &EnvProvider{dotenvPath: dotenvPath}
}

// LoadConfig assembles the configuration from the environment.
func (e *EnvProvider) LoadConfig() (*ConfigData, error) {
	if e.dotenvPath != "" {
		if _, err := os.Stat(e.dotenvPath); err == nil {
			if err := godotenv.Load(e.dotenvPath); err != nil {
				return nil, fmt.Errorf("loading %s: %w", e.dotenvPath, err)
			}
		}
	}

	projectDir := os.Getenv(EnvProjectDirectory)
	if projectDir == "" {
		return nil, fmt.Errorf("config: %s not set in environment", EnvProjectDirectory)
	}
	if home, err := os.UserHomeDir(); err == nil && len(projectDir) > 0 && projectDir[0] == '~' {
		projectDir = filepath.Join(home, projectDir[1:])
	}

	inputFolder := os.Getenv(EnvInputFolderName)
	if inputFolder == "" {
		return nil, fmt.Errorf("config: %s not set in environment", EnvInputFolderName)
	}
	outputFolder := os.Getenv(EnvOutputFolderName)
	if outputFolder == "" {
		return nil, fmt.Errorf("config: %s not set in environment", EnvOutputFolderName)
	}

	config := &ConfigData{
		InputDir:       filepath.Join(projectDir, inputFolder),
		OutputDir:      filepath.Join(projectDir, outputFolder),
		EndmembersPath: os.Getenv(EnvEndmembersPath),
		Thresholds:     DefaultThresholds(),
		Catalog:        os.Getenv(EnvCatalog),
		Listen:         os.Getenv(EnvListen),
	}

	if w := os.Getenv(EnvWorkers); w != "" {
		workers, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("config: %s=%q is not an integer: %w", EnvWorkers, w, err)
		}
		config.Workers = workers
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
