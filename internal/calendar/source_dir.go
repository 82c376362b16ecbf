package calendar

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed data/*.json
var embeddedData embed.FS

// DirSource reads one {year}.json document per year from a directory
type DirSource struct {
	fsys fs.FS
	dir  string
	name string
}

// NewDirSource creates a source over a directory on disk
func NewDirSource(dir string) *DirSource {
	return &DirSource{
		fsys: os.DirFS(dir),
		dir:  ".",
		name: "dir:" + dir,
	}
}

// NewFSSource creates a source over a directory inside fsys
func NewFSSource(fsys fs.FS, dir, name string) *DirSource {
	if dir == "" {
		dir = "."
	}
	return &DirSource{
		fsys: fsys,
		dir:  dir,
		name: name,
	}
}

// NewEmbeddedSource returns the holiday data bundled with the binary
func NewEmbeddedSource() *DirSource {
	return NewFSSource(embeddedData, "data", "embedded")
}

// ReadYear reads {year}.json
func (ds *DirSource) ReadYear(year int) ([]byte, error) {
	file := path.Join(ds.dir, fmt.Sprintf("%d.json", year))

	data, err := fs.ReadFile(ds.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %d (%s)", ErrYearNotFound, year, ds.name)
		}
		return nil, fmt.Errorf("failed to read holiday file %s: %w", file, err)
	}

	return data, nil
}

// ListYears returns the years of all *.json files whose name is an integer
func (ds *DirSource) ListYears() ([]int, error) {
	matches, err := fs.Glob(ds.fsys, path.Join(ds.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list holiday files: %w", err)
	}

	years := make([]int, 0, len(matches))
	for _, match := range matches {
		stem := strings.TrimSuffix(path.Base(match), ".json")
		year, err := strconv.Atoi(stem)
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)

	return years, nil
}

// Name identifies the source in logs
func (ds *DirSource) Name() string {
	return ds.name
}
