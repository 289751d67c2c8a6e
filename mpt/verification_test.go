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
	"strings"
	"testing"

	"go.uber.org/mock/gomock"
)

func TestVerifyClaims_AcceptsValidClaims(t *testing.T) {
	claims := []Claim{{
		Key:   make([]byte, 32), // its keccak256 hash is the leaf's key
		Value: []byte{0x08},
		Proof: Proof{hexToBytes(t, leafEntryHex)},
	}}

	ctrl := gomock.NewController(t)
	observer := NewMockVerificationObserver(ctrl)
	gomock.InOrder(
		observer.EXPECT().StartVerification(),
		observer.EXPECT().Progress(gomock.Any()).MinTimes(1),
		observer.EXPECT().EndVerification(nil),
	)

	root := hexToHash(t, singleLeafRootHex)
	if err := VerifyClaims(root, StateTrieConfig, claims, observer); err != nil {
		t.Errorf("verification should have succeeded, got %v", err)
	}
}

func TestVerifyClaims_SupportsDirectKeys(t *testing.T) {
	claims := []Claim{{
		Key:   hexToBytes(t, branchLeafKeyHex),
		Value: []byte{0x09},
		Proof: Proof{hexToBytes(t, branchEntryHex), hexToBytes(t, branchLeafEntryHex)},
	}}

	root := hexToHash(t, twoLevelRootHex)
	if err := VerifyClaims(root, DirectKeyConfig, claims, nil); err != nil {
		t.Errorf("verification should have succeeded, got %v", err)
	}
}

func TestVerifyClaims_ReportsTheFirstFailingClaim(t *testing.T) {
	claims := []Claim{
		{
			Key:   make([]byte, 32),
			Value: []byte{0x08},
			Proof: Proof{hexToBytes(t, leafEntryHex)},
		},
		{
			Key:   make([]byte, 32),
			Value: []byte{0x42}, // not the stored value
			Proof: Proof{hexToBytes(t, leafEntryHex)},
		},
	}

	ctrl := gomock.NewController(t)
	observer := NewMockVerificationObserver(ctrl)
	observer.EXPECT().StartVerification()
	observer.EXPECT().Progress(gomock.Any()).AnyTimes()
	observer.EXPECT().EndVerification(gomock.Not(gomock.Nil()))

	root := hexToHash(t, singleLeafRootHex)
	err := VerifyClaims(root, StateTrieConfig, claims, observer)
	if !errors.Is(err, ErrValueMismatch) {
		t.Fatalf("verification should have failed with %v, got %v", ErrValueMismatch, err)
	}
	if !strings.Contains(err.Error(), "claim 1") {
		t.Errorf("error should name the failing claim, got %v", err)
	}
}

func TestVerifyClaims_ToleratesMissingObservers(t *testing.T) {
	root := hexToHash(t, singleLeafRootHex)
	if err := VerifyClaims(root, StateTrieConfig, nil, nil); err != nil {
		t.Errorf("verification of an empty batch should succeed, got %v", err)
	}
}

func TestNilVerificationObserver_IgnoresAllEvents(t *testing.T) {
	observer := NilVerificationObserver{}
	observer.StartVerification()
	observer.Progress("msg")
	observer.EndVerification(nil)
	observer.EndVerification(errors.New("some error"))
}
