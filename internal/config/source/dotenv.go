package source

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"werss-client/internal/config/schema"
	corelog "werss-client/internal/core/log"
)

// DotEnvSource loads .env files into the process environment
// The values are picked up by EnvSource, which runs right after it
type DotEnvSource struct {
	dirs []string // directories to search for .env files
}

// NewDotEnvSource creates a new DotEnvSource
func NewDotEnvSource(dirs []string) *DotEnvSource {
	return &DotEnvSource{dirs: dirs}
}

// Name returns the source name
func (s *DotEnvSource) Name() string {
	return "dotenv"
}

// Priority returns the source priority
func (s *DotEnvSource) Priority() int {
	return PriorityDotEnv
}

// LoadInto loads .env and .env.local from each directory
func (s *DotEnvSource) LoadInto(cfg *schema.Root) error {
	for _, dir := range s.dirs {
		for _, name := range []string{".env", ".env.local"} {
			path := filepath.Join(dir, name)
			if err := loadEnvFile(path); err != nil {
				corelog.Debugf("Failed to load %s: %v", path, err)
			}
		}
	}
	return nil
}

// loadEnvFile sets variables from a single .env file
// Variables already present in the environment win
func loadEnvFile(path string) error {
	vars, err := godotenv.Read(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for key, value := range vars {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			corelog.Warnf("Failed to set env var %s from %s: %v", key, path, err)
		}
	}
	return nil
}

// FindDotEnvDirs finds directories that might contain .env files
func FindDotEnvDirs(configFile string) []string {
	var dirs []string

	if configFile != "" {
		if dir := filepath.Dir(configFile); dir != "" && dir != "." {
			dirs = append(dirs, dir)
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".werss"))
	}
	return dirs
}
