// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wiremsg

import (
	"bytes"
	"encoding/binary"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/voter"
)

// Kind tags a wire message for the relay and store's keyspace prefixes.
type Kind byte

const (
	KindViceBlock Kind = 'v'
	KindRoundVote Kind = 'r'
	KindTxVote    Kind = 't'
)

// ViceBlock is the inventory-typed wire form of a candidate block whose
// prevBlock is the claimed tip (MSG_VICE_BLOCK, spec.md §6).
type ViceBlock struct {
	Hash      dposids.BlockHash
	PrevBlock dposids.BlockHash
	Txs       []dposids.TxId
	Body      []byte // opaque full block bytes, out of scope to interpret here
}

// RoundVote is the wire form of a round vote: MSG_ROUND_VOTE.
type RoundVote struct {
	Tip       dposids.BlockHash
	Round     uint32
	Decision  uint8
	Subject   dposids.BlockHash
	Signature [65]byte
}

// TxVote is the wire form of a tx vote: MSG_TX_VOTE. The wire form allows
// a batch of choices per message; the Voter still applies them one
// voter.TxVote at a time.
type TxVote struct {
	Tip       dposids.BlockHash
	Round     uint32
	Choices   []WireChoice
	Signature [65]byte
}

// WireChoice is a single (decision, subject) pair inside a TxVote's batch.
type WireChoice struct {
	Decision uint8
	Subject  dposids.TxId
}

// payload returns the canonical serialization of the message minus its
// signature field — what gets hashed and signed/recovered.

func (m RoundVote) payload() []byte {
	var buf bytes.Buffer
	buf.Write(m.Tip[:])
	_ = binary.Write(&buf, binary.BigEndian, m.Round)
	buf.WriteByte(m.Decision)
	buf.Write(m.Subject[:])
	return buf.Bytes()
}

func (m TxVote) payload() []byte {
	var buf bytes.Buffer
	buf.Write(m.Tip[:])
	_ = binary.Write(&buf, binary.BigEndian, m.Round)
	for _, c := range m.Choices {
		buf.WriteByte(c.Decision)
		buf.Write(c.Subject[:])
	}
	return buf.Bytes()
}

// Sign signs m's canonical payload and returns m with Signature set.
func (m RoundVote) Sign(key *Signer) RoundVote {
	sig := Sign(key.priv, m.payload())
	copy(m.Signature[:], sig)
	return m
}

// RecoverSigner recovers and returns the signer's MasternodeId.
func (m RoundVote) RecoverSigner() (dposids.MasternodeId, error) {
	return Recover(m.Signature[:], m.payload())
}

// Sign signs m's canonical payload and returns m with Signature set.
func (m TxVote) Sign(key *Signer) TxVote {
	sig := Sign(key.priv, m.payload())
	copy(m.Signature[:], sig)
	return m
}

// RecoverSigner recovers and returns the signer's MasternodeId.
func (m TxVote) RecoverSigner() (dposids.MasternodeId, error) {
	return Recover(m.Signature[:], m.payload())
}

// ToCore converts a wire round vote into the voter package's internal
// shape, once its signer has been recovered and checked against the
// committee.
func (m RoundVote) ToCore(signer dposids.MasternodeId) voter.RoundVote {
	return voter.RoundVote{
		Tip:   m.Tip,
		Voter: signer,
		Round: dposids.Round(m.Round),
		Choice: voter.VoteChoice{
			Decision: voter.Decision(m.Decision),
			Subject:  m.Subject,
		},
	}
}

// ToCore converts each choice in a wire tx-vote batch into the voter
// package's internal per-choice shape.
func (m TxVote) ToCore(signer dposids.MasternodeId) []voter.TxVote {
	out := make([]voter.TxVote, 0, len(m.Choices))
	for _, c := range m.Choices {
		out = append(out, voter.TxVote{
			Tip:   m.Tip,
			Voter: signer,
			Round: dposids.Round(m.Round),
			Choice: voter.VoteChoice{
				Decision: voter.Decision(c.Decision),
				Subject:  c.Subject,
			},
		})
	}
	return out
}
