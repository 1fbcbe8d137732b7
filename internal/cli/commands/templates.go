package commands

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templateFS embed.FS

// copyTemplate copies an embedded template directory to the target path.
// Existing files are kept unless force is set.
func copyTemplate(templateName, targetDir string, force bool) ([]string, error) {
	root := path.Join("templates", templateName)
	var written []string

	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if rel == "" {
			return nil
		}
		rel = renameSpecialFiles(rel)
		targetPath := filepath.Join(targetDir, filepath.FromSlash(rel))

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}

		if !force {
			if _, err := os.Stat(targetPath); err == nil {
				return nil
			}
		}

		content, err := templateFS.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(targetPath, content, 0o600); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})

	return written, err
}

// renameSpecialFiles maps embedded names to dotted names, since embedded
// templates avoid leading dots: "ruleset/..." becomes ".ruleset/..." and
// "gitignore" becomes ".gitignore".
func renameSpecialFiles(rel string) string {
	parts := strings.Split(rel, "/")
	if parts[0] == "ruleset" {
		parts[0] = ".ruleset"
	}
	if last := len(parts) - 1; parts[last] == "gitignore" {
		parts[last] = ".gitignore"
	}
	return strings.Join(parts, "/")
}
