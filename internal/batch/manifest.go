package batch

import (
	"encoding/json"
	"fmt"
	"os"
)

// BodyPosition is a body centre in marker coordinates.
type BodyPosition struct {
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
}

// ManifestEntry represents one frame in the output manifest.
type ManifestEntry struct {
	Frame  int            `json:"frame"`
	Time   float64        `json:"time"`
	Image  string         `json:"image,omitempty"`
	Error  string         `json:"error,omitempty"`
	Bodies []BodyPosition `json:"bodies"`
}

// Manifest builds one entry per frame from the frames and their results.
func Manifest(frames []Frame, results []Result) []ManifestEntry {
	entries := make([]ManifestEntry, len(frames))
	for i, f := range frames {
		e := ManifestEntry{Frame: f.Index, Time: f.Time, Bodies: make([]BodyPosition, len(f.Calls))}
		for j, dc := range f.Calls {
			e.Bodies[j] = BodyPosition{Name: dc.Name, Position: dc.World.Translation()}
		}
		if i < len(results) {
			if results[i].Success {
				e.Image = results[i].Image
			} else {
				e.Error = results[i].Error
			}
		}
		entries[i] = e
	}
	return entries
}

// WriteManifest writes the entries as indented JSON to path.
func WriteManifest(path string, entries []ManifestEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("batch: manifest %s: %w", path, err)
	}
	return entries, nil
}
