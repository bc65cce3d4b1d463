package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIPSingle extracts the one file in a ZIP whose extension is in exts
// (any file when exts is empty) into destDir and returns its path. Directories
// and __MACOSX metadata are ignored. The entry is written under its base name.
func ExtractZIPSingle(zipPath, destDir string, exts ...string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var files []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		if len(exts) > 0 && !hasExt(f.Name, exts) {
			continue
		}
		files = append(files, f)
	}

	if len(files) != 1 {
		if len(exts) > 0 {
			return "", eris.Errorf("zip: expected exactly 1 %s file, got %d", strings.Join(exts, "/"), len(files))
		}
		return "", eris.Errorf("zip: expected exactly 1 file, got %d", len(files))
	}

	return extractZIPEntry(files[0], destDir)
}

func hasExt(name string, exts []string) bool {
	ext := path.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	// Entries must stay inside the archive root.
	if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}
	destPath := filepath.Join(destDir, path.Base(f.Name))

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close() //nolint:errcheck
		return "", eris.Wrap(err, "zip: write file")
	}
	return destPath, eris.Wrap(out.Close(), "zip: close file")
}
