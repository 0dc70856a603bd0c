// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package checkpoint

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/blinklabs-io/gogmios/cbor"
	"github.com/blinklabs-io/gogmios/protocol/common"
	"github.com/creachadair/atomicfile"
)

// FileStore is a MemoryStore which is written to disk after every change. The file holds a
// CBOR list of points, most recent first
type FileStore struct {
	MemoryStore
	path string
}

// NewFileStore returns a store backed by the file at path. Points already in the file are loaded
func NewFileStore(path string, depth int) (*FileStore, error) {
	mem, err := NewMemoryStore(depth)
	if err != nil {
		return nil, err
	}
	s := &FileStore{
		MemoryStore: MemoryStore{depth: mem.depth},
		path:        path,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Advance(point common.Point) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.advanceLocked(point)
	return s.saveLocked()
}

func (s *FileStore) Rollback(point common.Point) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rollbackLocked(point)
	return s.saveLocked()
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	var points []common.Point
	if _, err := cbor.Decode(data, &points); err != nil {
		return fmt.Errorf("failed to decode checkpoint file %s: %w", s.path, err)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.setLocked(points)
	return nil
}

func (s *FileStore) saveLocked() error {
	data, err := cbor.Encode(s.pointsLocked())
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if _, err := atomicfile.WriteAll(s.path, bytes.NewReader(data), 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	return nil
}
