// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"context"
	"errors"
	"io/fs"

	"crawshaw.dev/jsonfile"
)

// FileStore is a file-backed implementation of the [Store] interface.
type FileStore struct {
	f *jsonfile.JSONFile[fileData]
}

type fileData struct {
	Data map[string]string `json:"data"`
}

// NewFileStore creates a new [FileStore] backed by the file at path. A missing
// file is created empty.
func NewFileStore(path string) (*FileStore, error) {
	f, err := jsonfile.Load[fileData](path)
	if errors.Is(err, fs.ErrNotExist) {
		f, err = jsonfile.New[fileData](path)
		if err == nil {
			if err := f.Write(func(fd *fileData) error {
				fd.Data = make(map[string]string)
				return nil
			}); err != nil {
				return nil, err
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return &FileStore{f: f}, nil
}

// Get retrieves a value for a given key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	s.f.Read(func(fd *fileData) {
		if v, ok := fd.Data[key]; ok {
			val = []byte(v)
		}
	})
	return val, nil
}

// Set stores a value for a given key.
func (s *FileStore) Set(_ context.Context, key string, val []byte) error {
	return s.f.Write(func(fd *fileData) error {
		if fd.Data == nil {
			fd.Data = make(map[string]string)
		}
		fd.Data[key] = string(val)
		return nil
	})
}

// Delete removes a key.
func (s *FileStore) Delete(_ context.Context, key string) error {
	return s.f.Write(func(fd *fileData) error {
		delete(fd.Data, key)
		return nil
	})
}

// Close closes the file store.
func (s *FileStore) Close() error { return nil }
