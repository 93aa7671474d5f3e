package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type levelStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a LevelDB database in dir.
func OpenLevelDB(dir string) (Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %s", dir)
	}
	return &levelStore{db}, nil
}

// OpenLevelDBMemory opens a LevelDB database that is never written to disk.
func OpenLevelDBMemory() (Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb in memory")
	}
	return &levelStore{db}, nil
}

func (s *levelStore) Get(_ context.Context, key string) ([]byte, error) {
	v, err := s.db.Get([]byte(key), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, errors.Wrapf(err, "leveldb get %q", key)
	}
	return v, nil
}

func (s *levelStore) Set(_ context.Context, key string, value []byte) error {
	return errors.Wrapf(s.db.Put([]byte(key), value, nil), "leveldb put %q", key)
}

func (s *levelStore) Delete(_ context.Context, key string) error {
	return errors.Wrapf(s.db.Delete([]byte(key), nil), "leveldb delete %q", key)
}

func (s *levelStore) Close() error {
	return s.db.Close()
}
