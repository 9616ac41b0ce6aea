package fetch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sambabib/shaiscan/pkg/lockfile"
	"github.com/sambabib/shaiscan/pkg/logger"
	"github.com/sambabib/shaiscan/pkg/scanner"
)

// ReadProjectDir reads every supported package file present in dir. Sources
// are labelled with their full path. Missing files are skipped; any other read
// failure is returned. It fails with ErrNoPackageFiles when dir holds none.
func ReadProjectDir(dir string) (scanner.Sources, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	sources := scanner.Sources{}
	for _, format := range lockfile.Formats {
		path := filepath.Join(dir, format.FileName())
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		logger.Debugf("Found %s", path)
		sources[format] = scanner.Source{Label: path, Content: string(data)}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoPackageFiles)
	}
	return sources, nil
}
