package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidemarkdb/tidemark/utils/log"
)

// Finder locates segment files on disk. The directory reader is
// injected so tests can drive it without touching the filesystem.
type Finder struct {
	dirRead func(name string) ([]os.DirEntry, error)
}

func NewFinder(dirRead func(name string) ([]os.DirEntry, error)) *Finder {
	return &Finder{dirRead: dirRead}
}

type foundSegment struct {
	desc Descriptor
	path string
}

// Find returns the paths of all segment files directly under dir,
// ordered by (segment id, shard). Files whose names do not parse as
// segment descriptors are ignored.
func (f *Finder) Find(dir string) ([]string, error) {
	entries, err := f.dirRead(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read the directory %s: %w", dir, err)
	}
	var hits []foundSegment
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		d, err := ParseDescriptor(e.Name())
		if err != nil {
			continue
		}
		log.Debug("found segment: %s", e.Name())
		hits = append(hits, foundSegment{desc: d, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i].desc, hits[j].desc
		if a.SegmentID != b.SegmentID {
			return a.SegmentID < b.SegmentID
		}
		return a.Shard < b.Shard
	})
	ret := make([]string, len(hits))
	for i, h := range hits {
		ret[i] = h.path
	}
	return ret, nil
}
