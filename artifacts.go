package md2img

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-md2img/internal/fileutil"
	"github.com/alnah/go-md2img/internal/pipeline"
)

// artifactStampLayout prefixes request directories so they sort by creation
// time.
const artifactStampLayout = "20060102-150405.000"

// DefaultWorkDir returns the directory used for artifacts when none is
// configured.
func DefaultWorkDir() string {
	return filepath.Join(os.TempDir(), "md2img")
}

// artifactStore writes the Markdown and HTML of a conversion to disk. Each
// request gets its own directory, so concurrent requests never share a file
// name.
type artifactStore struct {
	dir string
	now func() time.Time
}

func newArtifactStore(dir string) *artifactStore {
	if dir == "" {
		dir = DefaultWorkDir()
	}
	return &artifactStore{dir: dir, now: time.Now}
}

// artifactSet locates the files of one request.
type artifactSet struct {
	Dir          string
	MarkdownPath string
	HTMLPath     string
}

// URL returns the file:// URL of the HTML artifact.
func (s *artifactSet) URL() string {
	return pipeline.PathToFileURL(s.HTMLPath)
}

// write creates a request directory holding <name>.md and <name>.html, where
// name is the directory's own <timestamp>_<suffix> name.
func (a *artifactStore) write(markdown, html string) (*artifactSet, error) {
	if err := fileutil.EnsureDir(a.dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}

	dir, err := os.MkdirTemp(a.dir, a.now().Format(artifactStampLayout)+"_*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}

	name := filepath.Base(dir)
	set := &artifactSet{Dir: dir}

	if set.MarkdownPath, err = fileutil.WriteNamed(dir, name, "md", markdown); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	if set.HTMLPath, err = fileutil.WriteNamed(dir, name, "html", html); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	return set, nil
}

// clear removes the request directory of set.
func (a *artifactStore) clear(set *artifactSet) error {
	if err := os.RemoveAll(set.Dir); err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactClear, err)
	}
	return nil
}
