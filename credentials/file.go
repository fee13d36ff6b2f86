package credentials

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

var _ Store = (*File)(nil)

// File is a Store backed by a JSON file on disk. Every operation reads
// the file, applies the change, and writes it back under a lock, so the
// stored value observed by a request is always the most recent write.
type File struct {
	path string
	lock sync.Mutex
}

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("[credentials.NewFile] path is required")
	}
	return &File{path: path}, nil
}

func (f *File) Get(_ context.Context, key Key) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.read()
	if err != nil {
		return "", errors.Wrap(err, "[File.Get] read")
	}
	return values[key], nil
}

func (f *File) Set(_ context.Context, key Key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.read()
	if err != nil {
		return errors.Wrap(err, "[File.Set] read")
	}
	values[key] = value
	return errors.Wrap(f.write(values), "[File.Set] write")
}

func (f *File) Delete(_ context.Context, key Key) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.read()
	if err != nil {
		return errors.Wrap(err, "[File.Delete] read")
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return errors.Wrap(f.write(values), "[File.Delete] write")
}

func (f *File) read() (map[Key]string, error) {
	values := make(map[Key]string)
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (f *File) write(values map[Key]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	// Tokens are secrets: owner read/write only.
	return os.WriteFile(f.path, data, 0o600)
}
