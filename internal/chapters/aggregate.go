// Package chapters discovers chapter sources in a directory tree and puts
// them into canonical order.
package chapters

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"

	"github.com/dgallion1/thesisfmt/internal/profile"
)

var (
	ErrMissingChapterContent = errors.New("chapter has no content")
	ErrDuplicateChapter      = errors.New("duplicate chapter number")
)

// ChapterPath is one content file located in the tree, already attributed
// to its chapter and, when nested, to its innermost subchapter directory.
type ChapterPath struct {
	Chapter Name     `json:"chapter"`
	Sub     *Name    `json:"sub,omitempty"`
	Dirs    []string `json:"dirs"` // directories from the chapter down to the file
	File    string   `json:"file"` // slash path relative to the tree root
}

// Descriptor is one chapter in canonical order with all of its sources.
type Descriptor struct {
	Name
	Title    string   `json:"title"`
	Dir      string   `json:"dir"`
	Position int      `json:"position"` // index in the canonical order, -1 if unknown
	Sources  []string `json:"sources"`
}

// Known reports whether the chapter is in the canonical order.
func (d Descriptor) Known() bool {
	return d.Position >= 0
}

// Walk visits the tree rooted at fsys and returns every content file with its
// parsed chapter identity. Top-level directories are chapters; deeper
// directories are subchapters. Hidden entries are skipped.
func Walk(fsys fs.FS, contentFile string) ([]ChapterPath, error) {
	var out []ChapterPath
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Name() != contentFile {
			return nil
		}

		dirs := strings.Split(path.Dir(p), "/")
		if dirs[0] == "." {
			// content file directly under the root belongs to no chapter
			return nil
		}
		cp := ChapterPath{Chapter: ParseName(dirs[0]), Dirs: dirs, File: p}
		if len(dirs) > 1 {
			sub := ParseName(dirs[len(dirs)-1])
			cp.Sub = &sub
		}
		out = append(out, cp)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk chapters: %w", err)
	}
	return out, nil
}

// Aggregate builds the ordered chapter list. Chapters without any content
// file are skipped and reported in the returned notes, each wrapping
// ErrMissingChapterContent. Two chapters with the same number are fatal.
func Aggregate(fsys fs.FS, p profile.Profile) ([]Descriptor, []error, error) {
	paths, err := Walk(fsys, p.Markup.ContentFile)
	if err != nil {
		return nil, nil, err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("read chapter root: %w", err)
	}

	byDir := make(map[string][]ChapterPath)
	for _, cp := range paths {
		byDir[cp.Chapter.Raw] = append(byDir[cp.Chapter.Raw], cp)
	}

	var (
		out   []Descriptor
		notes []error
	)
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		found := byDir[e.Name()]
		if len(found) == 0 {
			notes = append(notes, fmt.Errorf("%w: %s", ErrMissingChapterContent, e.Name()))
			continue
		}
		slices.SortFunc(found, func(a, b ChapterPath) int {
			return compareDirs(a.Dirs, b.Dirs)
		})

		name := ParseName(e.Name())
		pos, ok := p.Position(name.Raw)
		if !ok {
			pos = -1
		}
		d := Descriptor{
			Name:     name,
			Title:    p.Title(name.Raw),
			Dir:      e.Name(),
			Position: pos,
		}
		for _, cp := range found {
			d.Sources = append(d.Sources, cp.File)
		}
		out = append(out, d)
	}

	if err := checkDuplicates(out); err != nil {
		return nil, notes, err
	}
	slices.SortStableFunc(out, compareDescriptors)
	return out, notes, nil
}

func checkDuplicates(ds []Descriptor) error {
	seen := make(map[string]string)
	for _, d := range ds {
		id := d.ID()
		if id == "" || d.Number == 0 {
			continue
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateChapter, prev, d.Dir)
		}
		seen[id] = d.Dir
	}
	return nil
}

// compareDescriptors orders known chapters by canonical position, then the
// unknown ones by number, subnumber and natural name order.
func compareDescriptors(a, b Descriptor) int {
	switch {
	case a.Known() && b.Known():
		return a.Position - b.Position
	case a.Known():
		return -1
	case b.Known():
		return 1
	}
	if a.Number != b.Number {
		return a.Number - b.Number
	}
	if a.Sub != b.Sub {
		return a.Sub - b.Sub
	}
	return compareNatural(a.Raw, b.Raw)
}

// compareDirs puts a directory's own content before its subdirectories and
// sorts sibling directories in natural order.
func compareDirs(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareNatural(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareNatural(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	}
	return 1
}
