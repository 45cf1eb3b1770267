package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/hupe1980/subclust/codec"
	"github.com/hupe1980/subclust/sink"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	CurrentVersion   = 1
)

// Manifest describes a persisted hierarchy at a specific point in time.
type Manifest struct {
	Version           int           `json:"version"`
	ID                uint64        `json:"id"`
	Codec             string        `json:"codec"`
	Dimensionality    int           `json:"dimensionality"`
	Transcript        string        `json:"transcript"`
	Clusters          []ClusterInfo `json:"clusters"`
	CreatedAtUnixNano int64         `json:"created_at_unix_nano"`
}

// ClusterInfo describes a single written cluster unit.
type ClusterInfo struct {
	ID         string `json:"id"`
	Level      int    `json:"level"`
	LevelIndex int    `json:"level_index"`
	Members    int    `json:"members"`
	Path       string `json:"path"` // Relative to the destination dir
}

// Store manages the manifest units and atomic updates.
//
// Save relies on the sink's Put being atomic. Local puts through a temp
// file and a rename; object stores overwrite whole objects.
type Store struct {
	sink  sink.Sink
	dir   string
	codec codec.Codec
	mu    sync.Mutex
}

// NewStore creates a new manifest store below dir on the given sink.
// A nil codec falls back to codec.Default.
func NewStore(s sink.Sink, dir string, c codec.Codec) *Store {
	if c == nil {
		c = codec.Default
	}
	return &Store{
		sink:  s,
		dir:   dir,
		codec: c,
	}
}

// Load loads the current manifest. When none exists yet it returns an
// empty manifest at the current version.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	read := func(name string) ([]byte, error) {
		rc, err := s.sink.Open(ctx, path.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	// CURRENT holds the filename of the live manifest
	content, err := read(CurrentFileName)
	if errors.Is(err, sink.ErrNotFound) {
		return &Manifest{ID: 0, Version: CurrentVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := read(string(content))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version: %d (expected %d)", m.Version, CurrentVersion)
	}

	if m.Codec != "" {
		if _, ok := codec.ByName(m.Codec); !ok {
			return nil, fmt.Errorf("unknown manifest codec: %q", m.Codec)
		}
	}

	return &m, nil
}

// Save atomically saves a new manifest and repoints CURRENT at it.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.Codec = s.codec.Name()
	m.ID++

	if m.CreatedAtUnixNano == 0 {
		m.CreatedAtUnixNano = time.Now().UnixNano()
	}

	data, err := s.codec.Marshal(m)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%s-%06d.json", ManifestFileName, m.ID)
	if err := s.sink.Put(ctx, path.Join(s.dir, filename), data); err != nil {
		return err
	}

	// CURRENT moves last, so readers never see a pointer to a missing file
	return s.sink.Put(ctx, path.Join(s.dir, CurrentFileName), []byte(filename))
}
