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

import "fmt"

// This file covers the compact ("hex-prefix") encoding of navigation paths
// used by leaf and extension nodes. The encoding packs two nibbles into a
// single byte. The higher nibble of the first byte contains the oddness of
// the path and whether the node is a leaf node. If the path is odd, the
// lower nibble of the first byte already contains payload. If the path is
// even, the lower nibble of the first byte is padded with zero.
// The encoding is as follows:
// - 0b_0000_0000 (0x00): extension node, even path
// - 0b_0001_xxxx (0x1_): extension node, odd path
// - 0b_0010_0000 (0x20): leaf node, even path
// - 0b_0011_xxxx (0x3_): leaf node, odd path
// Examples:
//
//	[5,6,7,8,9] -> [15,67,89] extension node, or [35,67,89] leaf node
//	[4,5,6,7,8,9] -> [00,45,67,89] extension node, or [20,45,67,89] leaf node
//
// for more see:
// https://arxiv.org/pdf/2108.05513/1000 sec 4.1

// DecodeCompactPath decodes a compact-encoded path into its nibble sequence
// and reports whether the path terminates in a leaf node.
func DecodeCompactPath(encoded []byte) ([]Nibble, bool, error) {
	if len(encoded) == 0 {
		return nil, false, fmt.Errorf("%w: compact path must not be empty", ErrMalformedEncoding)
	}
	return compactPathToNibbles(encoded), isEncodedLeafPath(encoded), nil
}

// StripCompactPrefix removes the prefix nibble(s) of a compact-encoded path
// and returns the bare nibble sequence, dropping the leaf/extension flag.
func StripCompactPrefix(encoded []byte) ([]Nibble, error) {
	path, _, err := DecodeCompactPath(encoded)
	return path, err
}

// PackNibbles packs a nibble sequence into consecutive high/low bits of
// bytes. If the path length is odd, a leading zero nibble is added.
func PackNibbles(path []Nibble) []byte {
	res := make([]byte, (len(path)+1)/2)
	offset := len(path) % 2
	for i, cur := range path {
		pos := i + offset
		if pos%2 == 0 {
			res[pos/2] |= byte(cur&0xF) << 4
		} else {
			res[pos/2] |= byte(cur & 0xF)
		}
	}
	return res
}

// isEncodedLeafPath checks if the compact-encoded path belongs to a leaf
// node. The second-lowest bit of the first nibble carries the leaf flag.
func isEncodedLeafPath(path []byte) bool {
	return path[0]&0b_0010_0000>>5 == 1
}

// compactPathToNibbles converts a compact-encoded path to its nibbles.
// The oddness bit of the prefix decides whether the lower nibble of the
// first byte is payload or padding.
func compactPathToNibbles(path []byte) []Nibble {
	odd := int(path[0] & 0b_0001_0000 >> 4) // will become either 1 or 0

	res := make([]Nibble, 0, len(path)*2)
	for _, b := range path {
		res = append(res, Nibble(b>>4), Nibble(b&0xF))
	}

	return res[2-odd:]
}
