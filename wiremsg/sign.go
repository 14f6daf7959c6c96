// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wiremsg defines the p2p wire shapes for vice-blocks, round
// votes, and tx votes, and the recoverable-ECDSA signing/recovery used to
// authenticate them (spec.md §3, §6). Signatures are 65-byte compact
// recoverable signatures from github.com/decred/dcrd/dcrec/secp256k1/v4,
// the same library the dcrd-derived forks in this example pack use for
// their own signature recovery.
package wiremsg

import (
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/luxfi/dpos/dposids"
)

// ErrBadSignature is returned when a signature fails to parse or recover.
var ErrBadSignature = errors.New("wiremsg: malformed or unrecoverable signature")

// CanonicalHash hashes the canonical serialization of a message minus its
// signature field, the value that gets signed and recovered against.
func CanonicalHash(payload []byte) [32]byte {
	return sha256.Sum256(payload)
}

// Sign produces a 65-byte compact recoverable signature over payload's
// canonical hash using the local operator key.
func Sign(key *secp256k1.PrivateKey, payload []byte) []byte {
	hash := CanonicalHash(payload)
	return ecdsa.SignCompact(key, hash[:], true)
}

// Recover recovers the signer's MasternodeId from a compact signature and
// the payload it was produced over. The caller must still check that the
// recovered id is a committee member at the vote's tip (spec.md
// invariant 4) — Recover only proves possession of the signing key.
func Recover(sig []byte, payload []byte) (dposids.MasternodeId, error) {
	hash := CanonicalHash(payload)
	pub, _, err := ecdsa.RecoverCompact(sig, hash[:])
	if err != nil {
		return dposids.MasternodeId{}, ErrBadSignature
	}
	return nodeIDFromPubKey(pub), nil
}

func nodeIDFromPubKey(pub *secp256k1.PublicKey) dposids.MasternodeId {
	digest := sha256.Sum256(pub.SerializeCompressed())
	var id dposids.MasternodeId
	copy(id[:], digest[:len(id)])
	return id
}
