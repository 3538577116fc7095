// Command nirspec-server serves the results catalog over a read-only
// HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spectralsuite/nirspec/internal/database"
	"github.com/spectralsuite/nirspec/internal/log"
	"github.com/spectralsuite/nirspec/internal/server"
	"github.com/spectralsuite/nirspec/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "nirspec.yaml", "Path to configuration source (YAML file or .env, per -config-backend)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'env'")
	dbPath := flag.String("db", "", "Results catalog path (default from config)")
	listen := flag.String("listen", "", "Bind address (default from config, else :8090)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	path := *dbPath
	if path == "" {
		path = cfgData.Catalog
	}
	if path == "" {
		path = filepath.Join(cfgData.OutputDir, "results.db")
	}
	addr := *listen
	if addr == "" {
		addr = cfgData.Listen
	}
	if addr == "" {
		addr = ":8090"
	}

	catalog, err := database.Open(path, log.GetSugaredLogger())
	if err != nil {
		log.Errorf("Failed to open results catalog: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutdown signal received")
		cancel()
	}()

	ctrl := server.NewController(catalog, addr, log.GetSugaredLogger())
	if err := ctrl.Start(ctx); err != nil {
		log.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	var provider config.ConfigProvider

	switch cfgBackend {
	case "yaml":
		filename, _ := filepath.Abs(cfgFile)
		provider = config.NewYAMLProvider(filename)
	case "env":
		provider = config.NewEnvProvider(cfgFile)
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'env'", cfgBackend)
	}

	return provider.LoadConfig()
}
