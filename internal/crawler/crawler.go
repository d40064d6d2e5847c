// Package crawler is the ingestion side of the conversion boundary: it
// walks a mod's source tree and hands the engine fully loaded
// (path, source) pairs. Nothing downstream of it touches the filesystem.
package crawler

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"modport/internal/pipeline"
)

// Crawler scans a directory for Java mod source files.
type Crawler struct {
	ignored []string
}

func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", ".gradle", "build", "out", "target", "run"},
	}
}

// Collect walks the root directory and loads all Java sources. Unreadable
// files are skipped; one bad file does not abort the scan.
func (c *Crawler) Collect(root string) ([]pipeline.SourceFile, error) {
	var out []pipeline.SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}

		source, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		out = append(out, pipeline.SourceFile{
			Path:   filepath.ToSlash(rel),
			Source: source,
		})
		return nil
	})
	return out, err
}
