package store

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/recur/internal/model"
)

const snapshotVersion = 1

// Snapshot is the export/import document holding both collections.
type Snapshot struct {
	Version     int           `json:"version" yaml:"version"`
	ExportedAt  time.Time     `json:"exportedAt" yaml:"exportedAt"`
	Tasks       []model.Task  `json:"tasks" yaml:"tasks"`
	Completions model.History `json:"completions" yaml:"completions"`
}

// Snapshot formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatFromPath guesses the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

func EncodeSnapshot(w io.Writer, s Snapshot, format string) error {
	if s.Version == 0 {
		s.Version = snapshotVersion
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		return nil
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want yaml or json)", format)
}

func DecodeSnapshot(r io.Reader, format string) (Snapshot, error) {
	var s Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return Snapshot{}, fmt.Errorf("json decode: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return Snapshot{}, fmt.Errorf("yaml decode: %w", err)
		}
	default:
		return Snapshot{}, fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
	if s.Version > snapshotVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d is newer than supported %d", s.Version, snapshotVersion)
	}
	return s, nil
}
