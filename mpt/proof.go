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
	"fmt"
	"sort"
	"strings"

	"github.com/Fantom-foundation/Witness/common"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Proof is an ordered sequence of RLP-encoded MPT nodes, from the root node
// down to the terminal leaf. It is the witness format consumed by
// Node.VerifyProof.
type Proof [][]byte

// String renders the proof entries in order, one hex-encoded line each.
func (p Proof) String() string {
	var b strings.Builder
	for _, entry := range p {
		b.WriteString(fmt.Sprintf("0x%x\n", entry))
	}
	return b.String()
}

// ProofSet is an unordered collection of RLP-encoded MPT nodes indexed by
// their keccak256 hash. This is the natural shape of witness data produced
// by trie implementations; an ordered Proof for a concrete key can be
// re-derived from it using ProofFor.
type ProofSet map[common.Hash][]byte

// CreateProofSet indexes the given node encodings by their hash.
func CreateProofSet(entries ...[]byte) ProofSet {
	res := make(ProofSet, len(entries))
	for _, entry := range entries {
		res[common.Keccak256(entry)] = entry
	}
	return res
}

// Add merges the entries of the other set into this set.
func (p ProofSet) Add(other ProofSet) {
	for k, v := range other {
		p[k] = v
	}
}

// IsValid checks that this set is self-consistent: every entry must be
// keyed by the hash of its content and must decode into a valid node
// shape. Only a valid set can serve as a source of verified information.
func (p ProofSet) IsValid() bool {
	for k, v := range p {
		if k != common.Keccak256(v) {
			return false
		}
		if _, err := DecodeNodeData(v); err != nil {
			return false
		}
	}
	return true
}

// ProofFor re-derives the ordered root-to-leaf proof for the given nibble
// path from the entries of this set. It fails if the path cannot be
// followed through the contained nodes or does not terminate in a leaf
// covering the full path.
func (p ProofSet) ProofFor(root common.Hash, path []Nibble) (Proof, error) {
	return proofPathTo(p, root, path)
}

func (p ProofSet) getNode(hash common.Hash) ([]byte, bool) {
	data, exists := p[hash]
	return data, exists
}

// String returns a string representation of this set with all entries
// sorted by their hash.
func (p ProofSet) String() string {
	keys := maps.Keys(p)
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		for k := 0; k < len(a); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("0x%x->0x%x\n", k, p[k]))
	}
	return b.String()
}

// nodeSource provides RLP-encoded nodes by their hash. It is implemented
// by in-memory proof sets and by the persistent proof store.
type nodeSource interface {
	getNode(hash common.Hash) (data []byte, exists bool)
}

// proofPathTo walks the nodes of the given source from the root along the
// given nibble path and collects the visited encodings into an ordered
// proof. The walk follows extension prefixes and branch children until a
// leaf covering the remaining path is reached.
func proofPathTo(source nodeSource, root common.Hash, path []Nibble) (Proof, error) {
	res := Proof{}
	nodeHash := root
	for {
		data, exists := source.getNode(nodeHash)
		if !exists {
			return nil, fmt.Errorf("%w: no entry for node 0x%x", ErrMissingProof, nodeHash)
		}
		res = append(res, data)

		node, err := DecodeNodeData(data)
		if err != nil {
			return nil, err
		}

		switch node := node.(type) {
		case *LeafNode:
			if !slices.Equal(node.path, path) {
				return nil, fmt.Errorf("%w: leaf covers path %v, remaining path is %v", ErrKeyMismatch, node.path, path)
			}
			return res, nil
		case *ExtensionNode:
			if !IsPrefixOf(node.path, path) {
				return nil, fmt.Errorf("%w: extension path %v diverges from remaining path %v", ErrKeyMismatch, node.path, path)
			}
			path = path[len(node.path):]
			nodeHash = node.next.hash
		case *BranchNode:
			if len(path) == 0 {
				return nil, fmt.Errorf("%w: path exhausted at a branch node", ErrKeyMismatch)
			}
			child := node.children[path[0]]
			if child == nil {
				return nil, fmt.Errorf("%w: branch has no child for nibble %v", ErrKeyMismatch, path[0])
			}
			nodeHash = child.hash
			path = path[1:]
		default:
			return nil, fmt.Errorf("%w: node of shape %T on proof path", ErrInternal, node)
		}
	}
}
