package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Renderable is any go-echarts chart or page.
type Renderable interface {
	Render(w io.Writer) error
}

// Renderer writes charts as standalone HTML files into one directory.
type Renderer struct {
	dir string
}

// NewRenderer creates a renderer for dir. The directory is created on first save.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Path returns the file a chart with the given name is written to.
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.dir, name+".html")
}

// Save renders c to <dir>/<name>.html and returns the file path.
func (r *Renderer) Save(name string, c Renderable) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chart directory: %w", err)
	}

	path := r.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()

	if err := c.Render(f); err != nil {
		return "", fmt.Errorf("rendering chart %s: %w", name, err)
	}
	return path, nil
}
