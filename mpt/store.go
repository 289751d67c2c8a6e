// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Witness/common"
	"github.com/syndtr/goleveldb/leveldb"
)

// ProofStore is a persistent collection of RLP-encoded MPT nodes indexed
// by their keccak256 hash, backed by a LevelDB instance. It accumulates
// the witness data of many proofs; ordered proofs for individual keys can
// be re-derived from the stored nodes at any later time.
//
// Nodes of different proofs and tries may share entries; since entries are
// keyed by content hash, overlapping inserts are idempotent.
type ProofStore struct {
	db *leveldb.DB
}

// OpenProofStore opens a proof store in the given directory, creating it
// if it does not exist.
func OpenProofStore(directory string) (*ProofStore, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open proof store in %s: %w", directory, err)
	}
	return &ProofStore{db: db}, nil
}

// Store adds all entries of the given proof to the store. Entries are
// validated to be decodable nodes before anything is written.
func (s *ProofStore) Store(proof Proof) error {
	for _, entry := range proof {
		if _, err := DecodeNodeData(entry); err != nil {
			return err
		}
	}
	batch := new(leveldb.Batch)
	for _, entry := range proof {
		hash := common.Keccak256(entry)
		batch.Put(hash[:], entry)
	}
	return s.db.Write(batch, nil)
}

// GetNode retrieves the RLP encoding of the node with the given hash, or
// reports that no such node is stored.
func (s *ProofStore) GetNode(hash common.Hash) (data []byte, exists bool, err error) {
	data, err = s.db.Get(hash[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// ProofFor re-derives the ordered root-to-leaf proof for the given nibble
// path from the stored nodes, analogous to ProofSet.ProofFor.
func (s *ProofStore) ProofFor(root common.Hash, path []Nibble) (Proof, error) {
	reader := &storeReader{store: s}
	proof, err := proofPathTo(reader, root, path)
	if reader.err != nil {
		return nil, reader.err
	}
	return proof, err
}

// Close flushes and closes the underlying database.
func (s *ProofStore) Close() error {
	return s.db.Close()
}

// storeReader adapts the store to the nodeSource interface of the path
// walk, capturing database errors that the interface cannot carry.
type storeReader struct {
	store *ProofStore
	err   error
}

func (r *storeReader) getNode(hash common.Hash) ([]byte, bool) {
	if r.err != nil {
		return nil, false
	}
	data, exists, err := r.store.GetNode(hash)
	if err != nil {
		r.err = err
		return nil, false
	}
	return data, exists
}
