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
	"bytes"
	"fmt"

	"github.com/Fantom-foundation/Witness/common"
	"github.com/Fantom-foundation/Witness/mpt/rlp"
)

// The error categories reported by proof verification. Failures are
// terminal for the running verification; they are wrapped with context and
// can be discriminated using errors.Is.
const (
	// ErrMalformedEncoding indicates an RLP-level decoding failure of a
	// proof entry.
	ErrMalformedEncoding = common.ConstError("malformed node encoding")

	// ErrUnknownShape indicates an RLP item count that does not correspond
	// to any valid MPT node layout.
	ErrUnknownShape = common.ConstError("unknown node shape")

	// ErrInvalidHashLength indicates a child reference that is present but
	// not exactly 32 bytes long.
	ErrInvalidHashLength = common.ConstError("invalid hash length")

	// ErrHashMismatch indicates a proof entry whose digest does not equal
	// the hash its parent committed to, signaling a forged or misordered
	// proof.
	ErrHashMismatch = common.ConstError("proof entry hash mismatch")

	// ErrKeyMismatch indicates a terminal leaf that does not attest to the
	// claimed key.
	ErrKeyMismatch = common.ConstError("leaf key mismatch")

	// ErrValueMismatch indicates a terminal leaf or the empty trie not
	// attesting to the claimed value.
	ErrValueMismatch = common.ConstError("leaf value mismatch")

	// ErrMissingProof indicates a non-empty root claimed with zero proof
	// entries.
	ErrMissingProof = common.ConstError("missing proof")

	// ErrInternal indicates that the descent reached a structurally
	// impossible state, caused by either a malicious proof construction or
	// a violated implementation invariant.
	ErrInternal = common.ConstError("internal verification error")
)

// EmptyNodeHash is the root hash of the canonical empty trie, the keccak256
// hash of the RLP encoding of an empty string.
var EmptyNodeHash = common.Keccak256(rlp.Encode(rlp.String{}))

// EmptyValue is the canonical value sentinel reported for keys that are not
// present in a trie.
var EmptyValue = []byte{0x00}

// Node is a proof verifier anchored at a trusted 32-byte root digest. Its
// hash never changes after construction; its content starts out as
// UnknownNode and is filled at most once, by the first proof entry consumed
// during verification.
//
// A Node is not safe for concurrent use. Verifying multiple proofs against
// the same root in parallel requires one freshly constructed Node per
// verification.
type Node struct {
	hash   common.Hash
	config Config
	data   NodeData
}

// NewNode creates a verifier for the given trusted root digest using the
// StateTrieConfig, the mode of Ethereum's account and storage tries.
func NewNode(root common.Hash) *Node {
	return NewNodeWithConfig(root, StateTrieConfig)
}

// NewNodeWithConfig creates a verifier for the given trusted root digest
// and configuration.
func NewNodeWithConfig(root common.Hash, config Config) *Node {
	return &Node{hash: root, config: config, data: UnknownNode{}}
}

// newUnresolvedNode creates a node holding a child reference discovered
// while decoding a parent. Such nodes only carry their hash; they are never
// used to translate keys.
func newUnresolvedNode(hash common.Hash) *Node {
	return &Node{hash: hash, data: UnknownNode{}}
}

// Hash returns the digest this node is anchored at.
func (n *Node) Hash() common.Hash {
	return n.hash
}

// Data returns the current decoded content of this node. Before a
// successful verification this is UnknownNode.
func (n *Node) Data() NodeData {
	return n.data
}

// String renders the node's hash and its decoded shape for diagnostics.
func (n *Node) String() string {
	return fmt.Sprintf("Node(hash: 0x%x, data: %v)", n.hash, n.data)
}

// TranslateKey converts a raw lookup key into the trie key used for
// navigation. For configurations with hashed keys the key is hashed using
// keccak256; otherwise it is passed through unchanged. Callers apply this
// once at the verification boundary, before calling VerifyProof.
func (n *Node) TranslateKey(key []byte) []byte {
	if n.config.UseHashedKeys {
		hash := common.Keccak256(key)
		return hash[:]
	}
	return key
}

// VerifyProof checks that the given ordered sequence of RLP-encoded trie
// nodes cryptographically justifies that the given key maps to the given
// value under this node's root digest.
//
// An empty proof is the valid non-inclusion witness for the canonical empty
// trie; it requires this node's hash to be EmptyNodeHash and the claimed
// value to be EmptyValue. A non-empty proof is consumed one entry per
// level: each entry must be the exact preimage of the hash its parent
// committed to, and the terminal leaf must attest to the claimed key and
// value.
//
// The only retained effect on this node is that its content is filled from
// the first proof entry; deeper levels are verified on freshly derived
// child nodes and discarded afterwards.
func (n *Node) VerifyProof(key, value []byte, proof Proof) error {
	if len(proof) == 0 {
		if n.hash != EmptyNodeHash {
			return fmt.Errorf("%w: root 0x%x is not the empty trie root", ErrMissingProof, n.hash)
		}
		if !bytes.Equal(value, EmptyValue) {
			return fmt.Errorf("%w: the empty trie can only attest the empty value, claimed 0x%x", ErrValueMismatch, value)
		}
		return nil
	}

	// chain-of-custody: the entry must be the preimage of the expected hash
	entry := proof[0]
	if got := common.Keccak256(entry); got != n.hash {
		return fmt.Errorf("%w: proof entry hashes to 0x%x, node expects 0x%x", ErrHashMismatch, got, n.hash)
	}

	data, err := DecodeNodeData(entry)
	if err != nil {
		return err
	}
	if _, unresolved := n.data.(UnknownNode); unresolved || n.data == nil {
		n.data = data
	}

	if leaf, ok := data.(*LeafNode); ok {
		if got := leaf.Key(); !bytes.Equal(got, key) {
			return fmt.Errorf("%w: leaf attests key 0x%x, claimed 0x%x", ErrKeyMismatch, got, key)
		}
		if got := leaf.Value(); !bytes.Equal(got, value) {
			return fmt.Errorf("%w: leaf attests value 0x%x, claimed 0x%x", ErrValueMismatch, got, value)
		}
	}

	if len(proof) == 1 {
		return nil
	}
	rest := proof[1:]

	switch data := data.(type) {
	case *ExtensionNode:
		next := NewNodeWithConfig(data.next.hash, n.config)
		return next.VerifyProof(key, value, rest)
	case *BranchNode:
		// the next entry selects the continuation by hash equality; the
		// scan covers all slots instead of stopping at a structural match
		next := common.Keccak256(rest[0])
		matched := false
		for _, child := range data.children {
			if child == nil || child.hash != next {
				continue
			}
			matched = true
			node := NewNodeWithConfig(child.hash, n.config)
			if err := node.VerifyProof(key, value, rest); err != nil {
				return err
			}
		}
		if !matched {
			return fmt.Errorf("%w: no child of branch 0x%x matches the next proof entry", ErrHashMismatch, n.hash)
		}
		return nil
	case *LeafNode:
		return fmt.Errorf("%w: proof continues past a leaf node", ErrInternal)
	default:
		return fmt.Errorf("%w: cannot descend through node of shape %T", ErrInternal, data)
	}
}
