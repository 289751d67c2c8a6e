// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rlp

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"
)

func TestDecoding_DecodesStrings(t *testing.T) {
	longString := make([]byte, 60)
	for i := range longString {
		longString[i] = byte(i)
	}
	tests := map[string]struct {
		encoded []byte
		want    Item
	}{
		"empty string": {
			[]byte{0x80},
			String{Str: []byte{}},
		},
		"single small byte": {
			[]byte{0x05},
			String{Str: []byte{0x05}},
		},
		"single large byte": {
			[]byte{0x81, 0xfa},
			String{Str: []byte{0xfa}},
		},
		"short string": {
			[]byte{0x83, 'a', 'b', 'c'},
			String{Str: []byte("abc")},
		},
		"55 byte string": {
			append([]byte{0xb7}, make([]byte, 55)...),
			String{Str: make([]byte, 55)},
		},
		"long string": {
			append([]byte{0xb8, 60}, longString...),
			String{Str: longString},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			item, err := Decode(test.encoded)
			if err != nil {
				t.Fatalf("failed to decode %x: %v", test.encoded, err)
			}
			str, ok := item.(String)
			if !ok {
				t.Fatalf("decoded item is not a string: %T", item)
			}
			if !bytes.Equal(str.Str, test.want.(String).Str) {
				t.Errorf("unexpected content, wanted %x, got %x", test.want.(String).Str, str.Str)
			}
		})
	}
}

func TestDecoding_DecodesLists(t *testing.T) {
	tests := map[string]struct {
		encoded []byte
		want    List
	}{
		"empty list": {
			[]byte{0xc0},
			List{Items: []Item{}},
		},
		"list of strings": {
			[]byte{0xc8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'},
			List{Items: []Item{String{Str: []byte("cat")}, String{Str: []byte("dog")}}},
		},
		"list with single byte items": {
			[]byte{0xc3, 0x01, 0x02, 0x03},
			List{Items: []Item{String{Str: []byte{1}}, String{Str: []byte{2}}, String{Str: []byte{3}}}},
		},
		"nested list": {
			[]byte{0xc3, 0xc0, 0xc1, 0xc0},
			List{Items: []Item{List{Items: []Item{}}, List{Items: []Item{List{Items: []Item{}}}}}},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			item, err := Decode(test.encoded)
			if err != nil {
				t.Fatalf("failed to decode %x: %v", test.encoded, err)
			}
			if !reflect.DeepEqual(item, test.want) {
				t.Errorf("unexpected result, wanted %v, got %v", test.want, item)
			}
		})
	}
}

func TestDecoding_DecodesMultiItemNodeShapes(t *testing.T) {
	// a 17-item list of 32-byte strings, the shape of a full branch node
	hash := make([]byte, 32)
	for i := range hash {
		hash[i] = byte(i + 1)
	}
	items := make([]Item, 17)
	for i := 0; i < 16; i++ {
		items[i] = String{Str: hash}
	}
	items[16] = String{Str: []byte{}}
	encoded := Encode(List{Items: items})

	item, err := Decode(encoded)
	if err != nil {
		t.Fatalf("failed to decode branch-shaped list: %v", err)
	}
	list, ok := item.(List)
	if !ok {
		t.Fatalf("decoded item is not a list: %T", item)
	}
	if got, want := len(list.Items), 17; got != want {
		t.Fatalf("unexpected number of items, wanted %d, got %d", want, got)
	}
	for i := 0; i < 16; i++ {
		str, ok := list.Items[i].(String)
		if !ok || !bytes.Equal(str.Str, hash) {
			t.Errorf("unexpected item %d: %v", i, list.Items[i])
		}
	}
}

func TestDecoding_ReportsMalformedInput(t *testing.T) {
	tests := map[string][]byte{
		"empty input":               {},
		"truncated short string":    {0x85, 'a', 'b'},
		"truncated long string":     {0xb8, 60, 0x01, 0x02},
		"truncated length of size":  {0xb9, 0x01},
		"truncated short list":      {0xc5, 0x01},
		"truncated long list":       {0xf9, 0x01, 0x00, 0x01},
		"trailing content":          {0x80, 0x00},
		"malformed nested item":     {0xc1, 0x81},
		"list length out of bounds": {0xc4, 0x83, 'a', 'b'},
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(input); err == nil {
				t.Errorf("decoding of %x should have failed", input)
			}
		})
	}
}

func TestEncoding_RoundTripsThroughDecode(t *testing.T) {
	longString := make([]byte, 300)
	for i := range longString {
		longString[i] = byte(i)
	}
	tests := []Item{
		String{Str: []byte{}},
		String{Str: []byte{0x01}},
		String{Str: []byte("hello")},
		String{Str: longString},
		List{Items: []Item{}},
		List{Items: []Item{String{Str: []byte("a")}, String{Str: []byte("b")}}},
		List{Items: []Item{List{Items: []Item{String{Str: longString}}}}},
	}
	for i, item := range tests {
		t.Run(fmt.Sprintf("item-%d", i), func(t *testing.T) {
			encoded := Encode(item)
			restored, err := Decode(encoded)
			if err != nil {
				t.Fatalf("failed to decode %x: %v", encoded, err)
			}
			if got, want := Encode(restored), encoded; !bytes.Equal(got, want) {
				t.Errorf("unexpected re-encoding, wanted %x, got %x", want, got)
			}
		})
	}
}

func TestEncoding_EmptyStringIsTheCanonicalEmptyNode(t *testing.T) {
	if got, want := Encode(String{}), []byte{0x80}; !bytes.Equal(got, want) {
		t.Errorf("unexpected encoding of empty string, wanted %x, got %x", want, got)
	}
}

func TestEncoding_EncodedEmbedsRawFragments(t *testing.T) {
	fragment := Encode(String{Str: []byte("abc")})
	encoded := Encode(List{Items: []Item{Encoded{Data: fragment}}})
	restored, err := Decode(encoded)
	if err != nil {
		t.Fatalf("failed to decode %x: %v", encoded, err)
	}
	want := List{Items: []Item{String{Str: []byte("abc")}}}
	if !reflect.DeepEqual(restored, want) {
		t.Errorf("unexpected result, wanted %v, got %v", want, restored)
	}
}
