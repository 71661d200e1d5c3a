package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Extension priority for the same stem: formats that can carry alpha win
// over JPEG.
var extRank = map[string]int{
	".jpg":  1,
	".jpeg": 1,
	".webp": 2,
	".tga":  3,
	".png":  3,
}

// Index maps lowercase texture stems to filesystem paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex walks dir and its subdirectories for image files. Unreadable
// entries are skipped.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank, ok := extRank[ext]
		if !ok {
			return nil
		}
		stem := stemOf(path)

		existing, exists := idx.entries[stem]
		if !exists || rank > extRank[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
// Directory prefixes and the extension of name are ignored, so "earth",
// "Earth.jpg" and "maps/earth.png" all resolve to the best file for "earth".
func (idx *Index) ResolvePath(texName string) (string, bool) {
	path, ok := idx.entries[stemOf(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
