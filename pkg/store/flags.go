package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hashicorp/go-memdb"
	log "github.com/sirupsen/logrus"

	"github.com/open-feature/flagtmpl/pkg/model"
)

const flagsTable = "flags"

// IStore is the read side of a local flag store.
type IStore interface {
	Get(ctx context.Context, key string) (model.Flag, bool)
	GetAll(ctx context.Context) (map[string]model.Flag, model.Metadata, error)
	String() (string, error)
}

var _ IStore = (*State)(nil)

// State holds the flags loaded from a local flag document.
type State struct {
	mx       sync.RWMutex
	metadata model.Metadata
	db       *memdb.MemDB
}

func NewFlags() *State {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			flagsTable: {
				Name: flagsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key", Lowercase: false},
					},
				},
			},
		},
	}

	// the schema is static, a failure here is a programming error
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(err)
	}

	return &State{
		metadata: model.Metadata{},
		db:       db,
	}
}

// Replace swaps the whole content of the store in a single transaction, so readers observe
// either the previous or the new document, never a mix.
func (f *State) Replace(flags model.Flags) error {
	txn := f.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(flagsTable, "id"); err != nil {
		return fmt.Errorf("unable to clear flags: %w", err)
	}
	for key, flag := range flags.Flags {
		flag.Key = key
		if err := txn.Insert(flagsTable, flag); err != nil {
			return fmt.Errorf("unable to store flag %s: %w", key, err)
		}
	}
	txn.Commit()

	f.mx.Lock()
	defer f.mx.Unlock()
	f.metadata = model.Metadata{}
	for k, v := range flags.Metadata {
		f.metadata[k] = v
	}
	return nil
}

func (f *State) Get(_ context.Context, key string) (model.Flag, bool) {
	txn := f.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(flagsTable, "id", key)
	if err != nil {
		log.WithError(err).WithField("flag", key).Error("flag store lookup failed")
		return model.Flag{}, false
	}

	flag, ok := raw.(model.Flag)
	if !ok {
		return model.Flag{}, false
	}
	return flag, true
}

// GetAll returns a copy of the store's state
func (f *State) GetAll(_ context.Context) (map[string]model.Flag, model.Metadata, error) {
	txn := f.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(flagsTable, "id")
	if err != nil {
		return nil, nil, fmt.Errorf("unable to list flags: %w", err)
	}

	flags := make(map[string]model.Flag)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		flag := obj.(model.Flag)
		flags[flag.Key] = flag
	}

	return flags, f.getMetadata(), nil
}

func (f *State) String() (string, error) {
	flags, metadata, err := f.GetAll(context.Background())
	if err != nil {
		return "", err
	}
	bytes, err := json.Marshal(model.Flags{Flags: flags, Metadata: metadata})
	if err != nil {
		return "", fmt.Errorf("unable to marshal flags: %w", err)
	}

	return string(bytes), nil
}

func (f *State) getMetadata() model.Metadata {
	f.mx.RLock()
	defer f.mx.RUnlock()

	metadata := make(model.Metadata, len(f.metadata))
	for k, v := range f.metadata {
		metadata[k] = v
	}
	return metadata
}
