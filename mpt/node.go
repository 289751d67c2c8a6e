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
	"strings"

	"github.com/Fantom-foundation/Witness/common"
	"github.com/Fantom-foundation/Witness/mpt/rlp"
)

// NodeData is the decoded content of a single MPT node. A node referenced
// by a proof is in exactly one of four shapes:
//   - UnknownNode: the hash is known, the content has not been resolved yet
//   - LeafNode: terminal entry holding the remaining key path and a value
//   - ExtensionNode: a shared path prefix followed by a single child
//   - BranchNode: 16 nibble-indexed children plus one terminal value slot
type NodeData interface {
	fmt.Stringer

	// isNodeData restricts the set of node shapes to the types of this
	// package.
	isNodeData()
}

// UnknownNode is the content of every freshly constructed node and of
// children that are referenced by their hash but not resolved by any
// proof entry.
type UnknownNode struct{}

func (UnknownNode) isNodeData() {}

func (UnknownNode) String() string {
	return "Unknown"
}

// LeafNode is a terminal node holding the suffix of the navigation path not
// covered by its parents and the value payload stored at that location.
type LeafNode struct {
	path  []Nibble
	value []byte
}

func (n *LeafNode) isNodeData() {}

// Key returns the bare path of this leaf packed into bytes. For paths of
// odd length a leading zero nibble is added.
func (n *LeafNode) Key() []byte {
	return PackNibbles(n.path)
}

// Value returns the raw value payload stored in this leaf.
func (n *LeafNode) Value() []byte {
	return n.value
}

func (n *LeafNode) String() string {
	return fmt.Sprintf("Leaf(key=0x%x, value=0x%x)", n.Key(), n.value)
}

// ExtensionNode compresses a run of single-child branch levels into one
// node holding the shared path prefix and the single child.
type ExtensionNode struct {
	path []Nibble
	next *Node
}

func (n *ExtensionNode) isNodeData() {}

// Key returns the compressed path prefix of this extension packed into
// bytes, analogous to LeafNode.Key.
func (n *ExtensionNode) Key() []byte {
	return PackNibbles(n.path)
}

// Next returns the single child this extension leads to.
func (n *ExtensionNode) Next() *Node {
	return n.next
}

func (n *ExtensionNode) String() string {
	return fmt.Sprintf("Extension(key=0x%x, next=%v)", n.Key(), n.next)
}

// BranchNode is an inner node with 16 children indexed by the next nibble
// of the navigation path, plus one slot for a value terminating at this
// node. Absent children are nil.
type BranchNode struct {
	children [17]*Node
}

func (n *BranchNode) isNodeData() {}

// Child returns the child node at the given slot, or nil if the slot is
// empty. Valid positions are 0-16, where 16 is the terminal value slot.
func (n *BranchNode) Child(pos int) *Node {
	if pos < 0 || pos >= len(n.children) {
		return nil
	}
	return n.children[pos]
}

func (n *BranchNode) String() string {
	parts := make([]string, len(n.children))
	for i, child := range n.children {
		if child == nil {
			parts[i] = "None"
		} else {
			parts[i] = child.String()
		}
	}
	return fmt.Sprintf("Branch(%s)", strings.Join(parts, ", "))
}

// DecodeNodeData decodes the RLP encoding of a single MPT node into its
// shape. It checks for malformed data and returns an error if the data
// does not describe a valid node.
func DecodeNodeData(data []byte) (NodeData, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	list, ok := item.(rlp.List)
	if !ok {
		return nil, fmt.Errorf("%w: node is not an RLP list, got: %T", ErrUnknownShape, item)
	}

	switch len(list.Items) {
	case 2:
		prefix, ok := list.Items[0].(rlp.String)
		if !ok {
			return nil, fmt.Errorf("%w: invalid path type, got: %T, wanted: String", ErrMalformedEncoding, list.Items[0])
		}
		path, isLeaf, err := DecodeCompactPath(prefix.Str)
		if err != nil {
			return nil, err
		}
		payload, ok := list.Items[1].(rlp.String)
		if !ok {
			// a nested list is an embedded child, which is not a valid
			// 32-byte node reference
			return nil, fmt.Errorf("%w: node payload is not a byte string, got: %T", ErrInvalidHashLength, list.Items[1])
		}
		if isLeaf {
			return &LeafNode{path: path, value: payload.Str}, nil
		}
		if len(payload.Str) != common.HashSize {
			return nil, fmt.Errorf("%w: extension child reference has %d bytes, wanted: %d", ErrInvalidHashLength, len(payload.Str), common.HashSize)
		}
		var hash common.Hash
		copy(hash[:], payload.Str)
		return &ExtensionNode{path: path, next: newUnresolvedNode(hash)}, nil
	case 17:
		node := BranchNode{}
		for i, item := range list.Items {
			str, ok := item.(rlp.String)
			if !ok {
				return nil, fmt.Errorf("%w: branch child %d is not a byte string, got: %T", ErrInvalidHashLength, i, item)
			}
			switch len(str.Str) {
			case 0:
				// empty slot
			case common.HashSize:
				var hash common.Hash
				copy(hash[:], str.Str)
				node.children[i] = newUnresolvedNode(hash)
			default:
				return nil, fmt.Errorf("%w: branch child %d reference has %d bytes, wanted: %d", ErrInvalidHashLength, i, len(str.Str), common.HashSize)
			}
		}
		return &node, nil
	}

	return nil, fmt.Errorf("%w: got: %d list items, wanted: either 2 or 17", ErrUnknownShape, len(list.Items))
}
