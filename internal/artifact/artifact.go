// Package artifact manages the immutable, date-stamped files each pipeline stage
// writes under the data directory.
package artifact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no artifact exists for a name.
var ErrNotFound = eris.New("artifact: not found")

const dateLayout = "2006-01-02"

// Artifact is a file written by one stage and read by the next.
type Artifact struct {
	Name string // logical name, e.g. "addresses"
	Date string // capture date, YYYY-MM-DD
	Seq  int    // 1 for the first artifact of the day, 2+ for same-day reruns
	Ext  string // extension without the dot
	Path string
}

// Store writes and resolves artifacts in a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory artifacts are written to.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the file name for an artifact.
func FileName(name, date string, seq int, ext string) string {
	if seq <= 1 {
		return fmt.Sprintf("%s_%s.%s", name, date, ext)
	}
	return fmt.Sprintf("%s_%s_%d.%s", name, date, seq, ext)
}

// NewPath returns the next unused artifact path for name captured today.
// Same-day reruns get an increasing sequence suffix regardless of extension.
func (s *Store) NewPath(name, ext string) (Artifact, error) {
	date := s.now().Format(dateLayout)

	existing, err := s.List(name)
	if err != nil {
		return Artifact{}, err
	}
	seq := 1
	for _, a := range existing {
		if a.Date == date && a.Seq >= seq {
			seq = a.Seq + 1
		}
	}

	return Artifact{
		Name: name,
		Date: date,
		Seq:  seq,
		Ext:  ext,
		Path: filepath.Join(s.dir, FileName(name, date, seq, ext)),
	}, nil
}

// Write creates a new artifact from the bytes fn writes. The content goes to a
// temp file in the same directory and is renamed into place only when fn and
// the flush succeed, so a failed write leaves no artifact behind.
func (s *Store) Write(name, ext string, fn func(w io.Writer) error) (*Artifact, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "artifact: create data dir")
	}

	a, err := s.NewPath(name, ext)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(a.Path)+".tmp-*")
	if err != nil {
		return nil, eris.Wrap(err, "artifact: create temp file")
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := fn(bw); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, eris.Wrap(err, "artifact: flush")
	}
	if err := tmp.Sync(); err != nil {
		return nil, eris.Wrap(err, "artifact: sync")
	}
	if err := tmp.Close(); err != nil {
		return nil, eris.Wrap(err, "artifact: close temp file")
	}
	if err := os.Rename(tmpPath, a.Path); err != nil {
		return nil, eris.Wrapf(err, "artifact: rename to %s", a.Path)
	}
	committed = true

	return &a, nil
}

// List returns all artifacts for name, oldest first.
func (s *Store) List(name string) ([]Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "artifact: read data dir")
	}

	re := namePattern(name)
	var out []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		seq := 1
		if m[2] != "" {
			seq, _ = strconv.Atoi(m[2])
		}
		out = append(out, Artifact{
			Name: name,
			Date: m[1],
			Seq:  seq,
			Ext:  m[3],
			Path: filepath.Join(s.dir, e.Name()),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// Latest returns the most recent artifact for name.
func (s *Store) Latest(name string) (*Artifact, error) {
	all, err := s.List(name)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "no %q artifact in %s", name, s.dir)
	}
	a := all[len(all)-1]
	return &a, nil
}

func namePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `_(\d{4}-\d{2}-\d{2})(?:_(\d+))?\.([A-Za-z0-9]+)$`)
}
