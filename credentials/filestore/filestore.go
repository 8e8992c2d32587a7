package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/parishhub/parish-client/credentials"
)

var _ credentials.Store = (*FileStore)(nil)

// FileStore persists the credential slots as a single JSON document,
// replaced atomically on every write. Keeping the three slots in one file
// is what makes Persist all-or-nothing: the rename either lands or it
// does not.
//
// FileStore is not safe against concurrent writers in separate processes;
// like the browser storage it mirrors, the last writer wins.
type FileStore struct {
	path string
}

// New creates a FileStore backed by the given file path. The parent
// directory is created on first persist, not here.
func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("[filestore.New] path is required")
	}
	return &FileStore{path: path}, nil
}

func (fs *FileStore) Load() (credentials.Credentials, error) {
	var creds credentials.Credentials
	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return creds, nil
	}
	if err != nil {
		return creds, errors.Wrap(err, "[FileStore.Load] read file")
	}
	if err := json.Unmarshal(raw, &creds); err != nil {
		return credentials.Credentials{}, errors.Wrap(err, "[FileStore.Load] decode file")
	}
	return creds, nil
}

func (fs *FileStore) Persist(creds credentials.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileStore.Persist] create directory")
	}
	encoded, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileStore.Persist] encode credentials")
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Persist] write temp file")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[FileStore.Persist] rename temp file")
	}
	return nil
}

func (fs *FileStore) Clear() error {
	return fs.Persist(credentials.Credentials{})
}
