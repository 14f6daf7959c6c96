// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wiremsg

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/luxfi/dpos/dposids"
)

// Signer wraps the local operator's private key for signing emitted
// votes. It never leaves this package's functions except as an opaque
// handle, keeping the key material out of the voter/controller packages.
type Signer struct {
	priv *secp256k1.PrivateKey
}

// NewSigner wraps an existing private key.
func NewSigner(priv *secp256k1.PrivateKey) *Signer {
	return &Signer{priv: priv}
}

// GenerateSigner generates a fresh operator key, for tests and the
// cmd/dposd demo.
func GenerateSigner() (*Signer, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{priv: priv}, nil
}

// NodeID returns the MasternodeId this signer's public key recovers to.
func (s *Signer) NodeID() dposids.MasternodeId {
	return nodeIDFromPubKey(s.priv.PubKey())
}

// Hash returns the VoteHash this message is addressed by in the relay
// cache and the store: the hash of its canonical payload plus signature.
func (m RoundVote) Hash() dposids.VoteHash {
	return hashOf(append(m.payload(), m.Signature[:]...))
}

// Hash returns the VoteHash this message is addressed by.
func (m TxVote) Hash() dposids.VoteHash {
	return hashOf(append(m.payload(), m.Signature[:]...))
}

func hashOf(b []byte) dposids.VoteHash {
	digest := CanonicalHash(b)
	var id dposids.VoteHash
	copy(id[:], digest[:])
	return id
}
