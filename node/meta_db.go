package node

import (
	"encoding/binary"
	"sync"

	tmdb "github.com/tendermint/tm-db"
)

const (
	keyChainID    = "ci"
	keyOpHeight   = "oh"
	keyOpAppHash  = "ah"
	keyGenesisDoc = "gd"
)

// MetaDB keeps the few facts that live outside the versioned ledgers:
// the chain id and the height and hash of the last committed operation.
type MetaDB struct {
	db tmdb.DB

	mtx   sync.RWMutex
	cache map[string][]byte
}

func openMetaDB(name, dir string) (*MetaDB, error) {
	// The returned 'db' instance is safe in concurrent use.
	db, err := tmdb.NewDB(name, "goleveldb", dir)
	if err != nil {
		return nil, err
	}

	return &MetaDB{
		db:    db,
		cache: make(map[string][]byte),
	}, nil
}

func (stdb *MetaDB) Close() error {
	stdb.mtx.Lock()
	defer stdb.mtx.Unlock()

	stdb.cache = map[string][]byte{}
	return stdb.db.Close()
}

func (stdb *MetaDB) ChainID() string {
	v := stdb.get(keyChainID)
	if v == nil {
		return ""
	}
	return string(v)
}

func (stdb *MetaDB) PutChainID(chainId string) error {
	return stdb.put(keyChainID, []byte(chainId))
}

func (stdb *MetaDB) LastOpHeight() int64 {
	v := stdb.get(keyOpHeight)
	if v == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}

func (stdb *MetaDB) PutLastOpHeight(h int64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(h))
	return stdb.put(keyOpHeight, v)
}

func (stdb *MetaDB) LastAppHash() []byte {
	return stdb.get(keyOpAppHash)
}

func (stdb *MetaDB) PutLastAppHash(v []byte) error {
	return stdb.put(keyOpAppHash, v)
}

// GenesisDocHash remembers the genesis the chain was initialized from, so a
// restart with a different genesis file is caught early.
func (stdb *MetaDB) GenesisDocHash() []byte {
	return stdb.get(keyGenesisDoc)
}

func (stdb *MetaDB) PutGenesisDocHash(v []byte) error {
	return stdb.put(keyGenesisDoc, v)
}

func (stdb *MetaDB) putCache(k string, v []byte) {
	stdb.mtx.Lock()
	defer stdb.mtx.Unlock()

	stdb.cache[k] = v
}

func (stdb *MetaDB) getCache(k string) []byte {
	stdb.mtx.RLock()
	defer stdb.mtx.RUnlock()

	v := stdb.cache[k]
	return v
}

func (stdb *MetaDB) get(k string) []byte {
	if v := stdb.getCache(k); v != nil {
		return v
	}

	if v, err := stdb.db.Get([]byte(k)); err == nil {
		stdb.putCache(k, v)
		return v
	}

	return nil
}

func (stdb *MetaDB) put(k string, v []byte) error {
	if err := stdb.db.SetSync([]byte(k), v); err != nil {
		return err
	}
	stdb.putCache(k, v)
	return nil
}
