package storefakes

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/parishhub/parish-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store for tests. It counts calls so
// tests can assert persistence policy (e.g. exactly one persist per login).
type FakeStore struct {
	lock  sync.RWMutex
	creds credentials.Credentials

	PersistCalls int
	ClearCalls   int

	// FailPersist makes the next Persist calls fail when set.
	FailPersist bool
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Load() (credentials.Credentials, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.creds, nil
}

func (fs *FakeStore) Persist(creds credentials.Credentials) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.PersistCalls++
	if fs.FailPersist {
		return errors.New("persist failed")
	}
	fs.creds = creds
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.ClearCalls++
	fs.creds = credentials.Credentials{}
	return nil
}
