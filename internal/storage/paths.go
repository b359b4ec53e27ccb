package storage

import (
	"fmt"
	"os"
	"strings"

	"Go_FileStore/config"

	"github.com/spf13/afero"
)

// PathType selects one of the configured storage roots.
type PathType int

const (
	SavePath PathType = iota // 文件存储路径
	TempPath                 // 分块临时路径
	ZipPath                  // 压缩包路径
)

func (p PathType) String() string {
	switch p {
	case SavePath:
		return "save"
	case TempPath:
		return "temp"
	case ZipPath:
		return "zip"
	default:
		return fmt.Sprintf("PathType(%d)", int(p))
	}
}

// Paths composes filesystem paths from the configured roots.
// Folder and filename segments are joined verbatim; callers pass
// server generated tokens or sanitized names only.
type Paths struct {
	save string
	temp string
	zip  string
}

// NewPaths builds a composer from the file configuration.
func NewPaths(cfg config.FileConfig) Paths {
	return Paths{
		save: strings.TrimRight(cfg.SaveFolder, string(os.PathSeparator)),
		temp: strings.TrimRight(cfg.TempFolder, string(os.PathSeparator)),
		zip:  strings.TrimRight(cfg.ZipFolder, string(os.PathSeparator)),
	}
}

// Root returns the root directory for kind.
func (p Paths) Root(kind PathType) string {
	switch kind {
	case TempPath:
		return p.temp
	case ZipPath:
		return p.zip
	default:
		return p.save
	}
}

// Compose returns root(kind)[/folder][/filename].
func (p Paths) Compose(kind PathType, folder, filename string) string {
	path := p.Root(kind)
	if folder != "" {
		path += string(os.PathSeparator) + folder
	}
	if filename != "" {
		path += string(os.PathSeparator) + filename
	}
	return path
}

// Ensure creates every root that does not exist yet.
func (p Paths) Ensure(fs afero.Fs) error {
	for _, root := range []string{p.save, p.temp, p.zip} {
		if err := fs.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("create storage root %s: %w", root, err)
		}
	}
	return nil
}
