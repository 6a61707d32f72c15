package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/edvin/gameap-install/internal/config"
)

// LoadManifest reads an install manifest from disk. A manifest preseeds the
// installation request so a run needs no interactive input.
func LoadManifest(path string) (*config.Install, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	cfg := config.Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	return cfg, nil
}

// WriteManifest records the installation request to disk. Generated secrets
// are never part of the manifest.
func WriteManifest(cfg *config.Install, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	header := "# GameAP install manifest.\n" +
		"# Records the installation request (no secrets). Pass it back with\n" +
		"# --manifest to preseed another run.\n\n"

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(header+string(data)), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
