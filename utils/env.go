package utils

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// LoadEnv loads environment variables from a .env file in project root if present.
// Existing environment variables are not overwritten.
func LoadEnv() {
	loadOnce.Do(func() {
		path := findEnvFile()
		if path == "" {
			return
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("warning: cannot load %s: %v", path, err)
		}
	})
}

// findEnvFile walks up at most 3 levels from the working directory.
func findEnvFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, ".env")
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
