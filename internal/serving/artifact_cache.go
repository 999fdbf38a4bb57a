// Ridecast - Bike-Share Trip Duration Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ridecast

package serving

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const artifactKeyPrefix = "artifact:"

// ArtifactCache keeps downloaded model artifacts by source URI.
type ArtifactCache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte) error
}

// BadgerArtifactCache is a durable ArtifactCache.
type BadgerArtifactCache struct {
	db *badger.DB
}

// OpenBadgerArtifactCache opens (or creates) the store at dir. An empty dir
// keeps the store in memory.
func OpenBadgerArtifactCache(dir string) (*BadgerArtifactCache, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	// Artifacts are a few MB at most.
	opts.ValueLogFileSize = 64 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for artifact cache: %w", err)
	}
	return &BadgerArtifactCache{db: db}, nil
}

// Get returns the artifact stored under key.
func (c *BadgerArtifactCache) Get(key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(artifactKeyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get artifact: %w", err)
	}
	return data, true, nil
}

// Put stores data under key, replacing any previous value.
func (c *BadgerArtifactCache) Put(key string, data []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(artifactKeyPrefix+key), data)
	})
	if err != nil {
		return fmt.Errorf("put artifact: %w", err)
	}
	return nil
}

// Close closes the store.
func (c *BadgerArtifactCache) Close() error {
	return c.db.Close()
}
