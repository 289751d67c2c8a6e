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

	"github.com/Fantom-foundation/Witness/common"
)

//go:generate mockgen -source verification.go -destination verification_mocks.go -package mpt

// VerificationObserver is a listener interface for tracking the progress of
// a verification run. It can, for instance, be implemented by a user
// interface to keep the user updated on current activities.
type VerificationObserver interface {
	StartVerification()
	Progress(msg string)
	EndVerification(res error)
}

// NilVerificationObserver is a trivial implementation of the observer
// interface above which ignores all reported events.
type NilVerificationObserver struct{}

func (NilVerificationObserver) StartVerification()        {}
func (NilVerificationObserver) Progress(msg string)       {}
func (NilVerificationObserver) EndVerification(res error) {}

// Claim couples a lookup key and the value it allegedly maps to with the
// witness justifying the mapping. The key is the raw lookup key; it is
// translated according to the verification configuration before use.
type Claim struct {
	Key   []byte
	Value []byte
	Proof Proof
}

// VerifyClaims checks a batch of claims against the given trusted root.
// Each claim is verified on its own freshly constructed verifier; progress
// is reported to the given observer. The first failing claim aborts the
// run with an error naming the claim, preserving the verification error
// category for errors.Is.
func VerifyClaims(root common.Hash, config Config, claims []Claim, observer VerificationObserver) (res error) {
	if observer == nil {
		observer = NilVerificationObserver{}
	}
	observer.StartVerification()
	defer func() {
		observer.EndVerification(res)
	}()

	observer.Progress(fmt.Sprintf("Verifying %d claims against root 0x%x ...", len(claims), root))
	for i, claim := range claims {
		node := NewNodeWithConfig(root, config)
		key := node.TranslateKey(claim.Key)
		if err := node.VerifyProof(key, claim.Value, claim.Proof); err != nil {
			return fmt.Errorf("claim %d for key 0x%x: %w", i, claim.Key, err)
		}
		if (i+1)%verificationLogWindow == 0 {
			observer.Progress(fmt.Sprintf("  ... verified %d claims", i+1))
		}
	}
	return nil
}

// verificationLogWindow is the number of claims between progress reports.
const verificationLogWindow = 1000
