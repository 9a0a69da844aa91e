// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package datasets

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prysmaticlabs/go-bitfield"
	"golang.org/x/crypto/sha3"

	"github.com/gnosischain/era-ingest/internal/networks"
	"github.com/gnosischain/era-ingest/internal/ssz"
	"github.com/gnosischain/era-ingest/internal/types"
)

// Extractor flattens decoded blocks into dataset rows. One extractor serves
// one era attempt: every produced row carries the attempt's insert version.
type Extractor struct {
	cfg     *networks.Config
	version uint64
	wanted  map[string]struct{} // nil means every dataset
}

// NewExtractor returns an extractor for one era attempt. The datasets slice
// filters the output; empty selects everything.
func NewExtractor(cfg *networks.Config, insertVersion uint64, selected []string) *Extractor {
	e := &Extractor{cfg: cfg, version: insertVersion}
	if len(selected) > 0 {
		e.wanted = make(map[string]struct{}, len(selected))
		for _, name := range selected {
			e.wanted[name] = struct{}{}
		}
	}
	return e
}

func (e *Extractor) want(dataset string) bool {
	if e.wanted == nil {
		return true
	}
	_, ok := e.wanted[dataset]
	return ok
}

// Extract appends every row one signed block produces to the batch. The
// canonical timestamp is the execution payload's when present and non-zero,
// the slot schedule's otherwise; every row of the block shares it.
func (e *Extractor) Extract(signed *types.SignedBeaconBlock, fork ssz.Fork, batch *Batch) {
	var (
		block = signed.Block
		body  = block.Body
		slot  = block.Slot
	)
	ts := e.cfg.TimestampAt(slot)
	if body.ExecutionPayload != nil && body.ExecutionPayload.Timestamp != 0 {
		ts = time.Unix(int64(body.ExecutionPayload.Timestamp), 0).UTC()
	}

	if e.want(Blocks) {
		batch.Append(Blocks, &BlockRow{
			Slot:             slot,
			ProposerIndex:    block.ProposerIndex,
			ParentRoot:       ssz.Hex(block.ParentRoot[:]),
			StateRoot:        ssz.Hex(block.StateRoot[:]),
			Signature:        ssz.Hex(signed.Signature[:]),
			RandaoReveal:     ssz.Hex(body.RandaoReveal[:]),
			Graffiti:         ssz.Hex(body.Graffiti[:]),
			GraffitiText:     graffitiText(body.Graffiti),
			Eth1DepositRoot:  ssz.Hex(body.Eth1Data.DepositRoot[:]),
			Eth1DepositCount: body.Eth1Data.DepositCount,
			Eth1BlockHash:    ssz.Hex(body.Eth1Data.BlockHash[:]),
			Fork:             fork.String(),
			TimestampUTC:     ts,
			InsertVersion:    e.version,
		})
	}
	if e.want(SyncAggregates) && body.SyncAggregate != nil {
		bits := bitfield.Bitvector512(body.SyncAggregate.SyncCommitteeBits[:])
		batch.Append(SyncAggregates, &SyncAggregateRow{
			Slot:                    slot,
			CommitteeBits:           ssz.Hex(body.SyncAggregate.SyncCommitteeBits[:]),
			CommitteeSignature:      ssz.Hex(body.SyncAggregate.SyncCommitteeSignature[:]),
			ParticipatingValidators: bits.Count(),
			TimestampUTC:            ts,
			InsertVersion:           e.version,
		})
	}
	e.extractPayload(body.ExecutionPayload, slot, ts, batch)
	e.extractOperations(body, slot, ts, batch)
	e.extractRequests(body.ExecutionRequests, slot, ts, batch)
}

func (e *Extractor) extractPayload(payload *types.ExecutionPayload, slot uint64, ts time.Time, batch *Batch) {
	if payload == nil {
		return
	}
	baseFee := "0"
	if payload.BaseFeePerGas != nil {
		baseFee = payload.BaseFeePerGas.Dec()
	}
	if e.want(ExecutionPayloads) {
		batch.Append(ExecutionPayloads, &ExecutionPayloadRow{
			Slot:              slot,
			BlockNumber:       payload.BlockNumber,
			BlockHash:         ssz.Hex(payload.BlockHash[:]),
			ParentHash:        ssz.Hex(payload.ParentHash[:]),
			FeeRecipient:      ssz.Hex(payload.FeeRecipient[:]),
			StateRoot:         ssz.Hex(payload.StateRoot[:]),
			ReceiptsRoot:      ssz.Hex(payload.ReceiptsRoot[:]),
			PrevRandao:        ssz.Hex(payload.PrevRandao[:]),
			GasLimit:          payload.GasLimit,
			GasUsed:           payload.GasUsed,
			Timestamp:         payload.Timestamp,
			ExtraData:         ssz.Hex(payload.ExtraData),
			BaseFeePerGas:     baseFee,
			BlobGasUsed:       payload.BlobGasUsed,
			ExcessBlobGas:     payload.ExcessBlobGas,
			TransactionsCount: uint64(len(payload.Transactions)),
			WithdrawalsCount:  uint64(len(payload.Withdrawals)),
			TimestampUTC:      ts,
			InsertVersion:     e.version,
		})
	}
	if e.want(Transactions) {
		for i, tx := range payload.Transactions {
			batch.Append(Transactions, &TransactionRow{
				Slot:             slot,
				BlockNumber:      payload.BlockNumber,
				BlockHash:        ssz.Hex(payload.BlockHash[:]),
				TransactionIndex: uint64(i),
				TransactionHash:  txHash(tx),
				FeeRecipient:     ssz.Hex(payload.FeeRecipient[:]),
				GasLimit:         payload.GasLimit,
				GasUsed:          payload.GasUsed,
				BaseFeePerGas:    baseFee,
				TimestampUTC:     ts,
				InsertVersion:    e.version,
			})
		}
	}
	if e.want(Withdrawals) {
		for _, w := range payload.Withdrawals {
			batch.Append(Withdrawals, &WithdrawalRow{
				Slot:            slot,
				BlockNumber:     payload.BlockNumber,
				WithdrawalIndex: w.Index,
				ValidatorIndex:  w.ValidatorIndex,
				Address:         ssz.Hex(w.Address[:]),
				Amount:          w.Amount,
				TimestampUTC:    ts,
				InsertVersion:   e.version,
			})
		}
	}
}

func (e *Extractor) extractOperations(body *types.BeaconBlockBody, slot uint64, ts time.Time, batch *Batch) {
	if e.want(Attestations) {
		for i, att := range body.Attestations {
			row := &AttestationRow{
				Slot:             slot,
				AttestationIndex: uint64(i),
				AggregationBits:  ssz.Hex(att.AggregationBits),
				AttestationSlot:  att.Data.Slot,
				CommitteeIndex:   att.Data.CommitteeIndex,
				BeaconBlockRoot:  ssz.Hex(att.Data.BeaconBlockRoot[:]),
				SourceEpoch:      att.Data.Source.Epoch,
				SourceRoot:       ssz.Hex(att.Data.Source.Root[:]),
				TargetEpoch:      att.Data.Target.Epoch,
				TargetRoot:       ssz.Hex(att.Data.Target.Root[:]),
				Signature:        ssz.Hex(att.Signature[:]),
				TimestampUTC:     ts,
				InsertVersion:    e.version,
			}
			if att.CommitteeBits != nil {
				bits := ssz.Hex(att.CommitteeBits[:])
				row.CommitteeBits = &bits
			}
			batch.Append(Attestations, row)
		}
	}
	if e.want(Deposits) {
		for i, dep := range body.Deposits {
			batch.Append(Deposits, &DepositRow{
				Slot:                  slot,
				DepositIndex:          uint64(i),
				Pubkey:                ssz.Hex(dep.Data.Pubkey[:]),
				WithdrawalCredentials: ssz.Hex(dep.Data.WithdrawalCredentials[:]),
				Amount:                dep.Data.Amount,
				Signature:             ssz.Hex(dep.Data.Signature[:]),
				TimestampUTC:          ts,
				InsertVersion:         e.version,
			})
		}
	}
	if e.want(VoluntaryExits) {
		for i, exit := range body.VoluntaryExits {
			batch.Append(VoluntaryExits, &VoluntaryExitRow{
				Slot:           slot,
				ExitIndex:      uint64(i),
				Epoch:          exit.Exit.Epoch,
				ValidatorIndex: exit.Exit.ValidatorIndex,
				Signature:      ssz.Hex(exit.Signature[:]),
				TimestampUTC:   ts,
				InsertVersion:  e.version,
			})
		}
	}
	if e.want(ProposerSlashings) {
		for i, ps := range body.ProposerSlashings {
			h1, h2 := ps.SignedHeader1, ps.SignedHeader2
			batch.Append(ProposerSlashings, &ProposerSlashingRow{
				Slot:                 slot,
				SlashingIndex:        uint64(i),
				Header1Slot:          h1.Header.Slot,
				Header1ProposerIndex: h1.Header.ProposerIndex,
				Header1ParentRoot:    ssz.Hex(h1.Header.ParentRoot[:]),
				Header1StateRoot:     ssz.Hex(h1.Header.StateRoot[:]),
				Header1BodyRoot:      ssz.Hex(h1.Header.BodyRoot[:]),
				Header1Signature:     ssz.Hex(h1.Signature[:]),
				Header2Slot:          h2.Header.Slot,
				Header2ProposerIndex: h2.Header.ProposerIndex,
				Header2ParentRoot:    ssz.Hex(h2.Header.ParentRoot[:]),
				Header2StateRoot:     ssz.Hex(h2.Header.StateRoot[:]),
				Header2BodyRoot:      ssz.Hex(h2.Header.BodyRoot[:]),
				Header2Signature:     ssz.Hex(h2.Signature[:]),
				TimestampUTC:         ts,
				InsertVersion:        e.version,
			})
		}
	}
	if e.want(AttesterSlashings) {
		for i, as := range body.AttesterSlashings {
			att1, att2 := as.Attestation1, as.Attestation2
			batch.Append(AttesterSlashings, &AttesterSlashingRow{
				Slot:                   slot,
				SlashingIndex:          uint64(i),
				Att1Slot:               att1.Data.Slot,
				Att1CommitteeIndex:     att1.Data.CommitteeIndex,
				Att1BeaconBlockRoot:    ssz.Hex(att1.Data.BeaconBlockRoot[:]),
				Att1SourceEpoch:        att1.Data.Source.Epoch,
				Att1TargetEpoch:        att1.Data.Target.Epoch,
				Att1AttestingIndices:   indicesJSON(att1.AttestingIndices),
				Att1ValidatorCount:     uint64(len(att1.AttestingIndices)),
				Att2Slot:               att2.Data.Slot,
				Att2CommitteeIndex:     att2.Data.CommitteeIndex,
				Att2BeaconBlockRoot:    ssz.Hex(att2.Data.BeaconBlockRoot[:]),
				Att2SourceEpoch:        att2.Data.Source.Epoch,
				Att2TargetEpoch:        att2.Data.Target.Epoch,
				Att2AttestingIndices:   indicesJSON(att2.AttestingIndices),
				Att2ValidatorCount:     uint64(len(att2.AttestingIndices)),
				TotalSlashedValidators: unionSize(att1.AttestingIndices, att2.AttestingIndices),
				TimestampUTC:           ts,
				InsertVersion:          e.version,
			})
		}
	}
	if e.want(BLSChanges) {
		for i, change := range body.BLSChanges {
			batch.Append(BLSChanges, &BLSChangeRow{
				Slot:               slot,
				ChangeIndex:        uint64(i),
				ValidatorIndex:     change.Change.ValidatorIndex,
				FromBLSPubkey:      ssz.Hex(change.Change.FromBLSPubkey[:]),
				ToExecutionAddress: ssz.Hex(change.Change.ToExecutionAddress[:]),
				Signature:          ssz.Hex(change.Signature[:]),
				TimestampUTC:       ts,
				InsertVersion:      e.version,
			})
		}
	}
	if e.want(BlobCommitments) {
		for i, commitment := range body.BlobKZGCommitments {
			batch.Append(BlobCommitments, &BlobCommitmentRow{
				Slot:            slot,
				CommitmentIndex: uint64(i),
				Commitment:      ssz.Hex(commitment[:]),
				TimestampUTC:    ts,
				InsertVersion:   e.version,
			})
		}
	}
}

func (e *Extractor) extractRequests(requests *types.ExecutionRequests, slot uint64, ts time.Time, batch *Batch) {
	if requests == nil {
		return
	}
	if e.want(DepositRequests) {
		for i, req := range requests.Deposits {
			batch.Append(DepositRequests, &DepositRequestRow{
				Slot:                  slot,
				RequestIndex:          uint64(i),
				Pubkey:                ssz.Hex(req.Pubkey[:]),
				WithdrawalCredentials: ssz.Hex(req.WithdrawalCredentials[:]),
				Amount:                req.Amount,
				Signature:             ssz.Hex(req.Signature[:]),
				Index:                 req.Index,
				TimestampUTC:          ts,
				InsertVersion:         e.version,
			})
		}
	}
	if e.want(WithdrawalRequests) {
		for i, req := range requests.Withdrawals {
			batch.Append(WithdrawalRequests, &WithdrawalRequestRow{
				Slot:            slot,
				RequestIndex:    uint64(i),
				SourceAddress:   ssz.Hex(req.SourceAddress[:]),
				ValidatorPubkey: ssz.Hex(req.ValidatorPubkey[:]),
				Amount:          req.Amount,
				TimestampUTC:    ts,
				InsertVersion:   e.version,
			})
		}
	}
	if e.want(ConsolidationRequests) {
		for i, req := range requests.Consolidations {
			batch.Append(ConsolidationRequests, &ConsolidationRequestRow{
				Slot:          slot,
				RequestIndex:  uint64(i),
				SourceAddress: ssz.Hex(req.SourceAddress[:]),
				SourcePubkey:  ssz.Hex(req.SourcePubkey[:]),
				TargetPubkey:  ssz.Hex(req.TargetPubkey[:]),
				TimestampUTC:  ts,
				InsertVersion: e.version,
			})
		}
	}
}

// txHash computes the keccak-256 digest of a raw transaction's opaque bytes,
// which is its canonical execution-layer hash.
func txHash(tx []byte) string {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(tx)
	return ssz.Hex(hasher.Sum(nil))
}

// indicesJSON renders attesting indices as a JSON array of decimal strings to
// keep 64-bit values intact in every downstream consumer.
func indicesJSON(indices []uint64) string {
	strs := make([]string, len(indices))
	for i, n := range indices {
		strs[i] = strconv.FormatUint(n, 10)
	}
	blob, _ := json.Marshal(strs)
	return string(blob)
}

// unionSize counts the distinct validators across both sides of a slashing.
func unionSize(a, b []uint64) uint64 {
	seen := make(map[uint64]struct{}, len(a)+len(b))
	for _, n := range a {
		seen[n] = struct{}{}
	}
	for _, n := range b {
		seen[n] = struct{}{}
	}
	return uint64(len(seen))
}

// graffitiText renders graffiti as printable text when it is valid UTF-8 after
// trimming zero padding, and empty otherwise.
func graffitiText(graffiti [32]byte) string {
	text := strings.TrimRight(string(graffiti[:]), "\x00")
	if !utf8.ValidString(text) {
		return ""
	}
	return text
}
