// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package datasets flattens decoded beacon blocks into the relational rows the
// warehouse stores: one row type per table, every row stamped with the block's
// canonical timestamp.
package datasets

import "time"

// Dataset names, doubling as warehouse table names.
const (
	Blocks                = "blocks"
	SyncAggregates        = "sync_aggregates"
	ExecutionPayloads     = "execution_payloads"
	Transactions          = "transactions"
	Withdrawals           = "withdrawals"
	Attestations          = "attestations"
	Deposits              = "deposits"
	VoluntaryExits        = "voluntary_exits"
	ProposerSlashings     = "proposer_slashings"
	AttesterSlashings     = "attester_slashings"
	BLSChanges            = "bls_changes"
	BlobCommitments       = "blob_commitments"
	DepositRequests       = "deposit_requests"
	WithdrawalRequests    = "withdrawal_requests"
	ConsolidationRequests = "consolidation_requests"
)

// All lists every dataset in load order.
var All = []string{
	Blocks, SyncAggregates, ExecutionPayloads, Transactions, Withdrawals,
	Attestations, Deposits, VoluntaryExits, ProposerSlashings,
	AttesterSlashings, BLSChanges, BlobCommitments, DepositRequests,
	WithdrawalRequests, ConsolidationRequests,
}

type BlockRow struct {
	Slot             uint64    `ch:"slot"`
	ProposerIndex    uint64    `ch:"proposer_index"`
	ParentRoot       string    `ch:"parent_root"`
	StateRoot        string    `ch:"state_root"`
	Signature        string    `ch:"signature"`
	RandaoReveal     string    `ch:"randao_reveal"`
	Graffiti         string    `ch:"graffiti"`
	GraffitiText     string    `ch:"graffiti_text"`
	Eth1DepositRoot  string    `ch:"eth1_deposit_root"`
	Eth1DepositCount uint64    `ch:"eth1_deposit_count"`
	Eth1BlockHash    string    `ch:"eth1_block_hash"`
	Fork             string    `ch:"fork"`
	TimestampUTC     time.Time `ch:"timestamp_utc"`
	InsertVersion    uint64    `ch:"insert_version"`
}

type SyncAggregateRow struct {
	Slot                    uint64    `ch:"slot"`
	CommitteeBits           string    `ch:"sync_committee_bits"`
	CommitteeSignature      string    `ch:"sync_committee_signature"`
	ParticipatingValidators uint64    `ch:"participating_validators"`
	TimestampUTC            time.Time `ch:"timestamp_utc"`
	InsertVersion           uint64    `ch:"insert_version"`
}

type ExecutionPayloadRow struct {
	Slot              uint64    `ch:"slot"`
	BlockNumber       uint64    `ch:"block_number"`
	BlockHash         string    `ch:"block_hash"`
	ParentHash        string    `ch:"parent_hash"`
	FeeRecipient      string    `ch:"fee_recipient"`
	StateRoot         string    `ch:"state_root"`
	ReceiptsRoot      string    `ch:"receipts_root"`
	PrevRandao        string    `ch:"prev_randao"`
	GasLimit          uint64    `ch:"gas_limit"`
	GasUsed           uint64    `ch:"gas_used"`
	Timestamp         uint64    `ch:"timestamp"`
	ExtraData         string    `ch:"extra_data"`
	BaseFeePerGas     string    `ch:"base_fee_per_gas"`
	BlobGasUsed       *uint64   `ch:"blob_gas_used"`
	ExcessBlobGas     *uint64   `ch:"excess_blob_gas"`
	TransactionsCount uint64    `ch:"transactions_count"`
	WithdrawalsCount  uint64    `ch:"withdrawals_count"`
	TimestampUTC      time.Time `ch:"timestamp_utc"`
	InsertVersion     uint64    `ch:"insert_version"`
}

type TransactionRow struct {
	Slot             uint64    `ch:"slot"`
	BlockNumber      uint64    `ch:"block_number"`
	BlockHash        string    `ch:"block_hash"`
	TransactionIndex uint64    `ch:"transaction_index"`
	TransactionHash  string    `ch:"transaction_hash"`
	FeeRecipient     string    `ch:"fee_recipient"`
	GasLimit         uint64    `ch:"gas_limit"`
	GasUsed          uint64    `ch:"gas_used"`
	BaseFeePerGas    string    `ch:"base_fee_per_gas"`
	TimestampUTC     time.Time `ch:"timestamp_utc"`
	InsertVersion    uint64    `ch:"insert_version"`
}

type WithdrawalRow struct {
	Slot            uint64    `ch:"slot"`
	BlockNumber     uint64    `ch:"block_number"`
	WithdrawalIndex uint64    `ch:"withdrawal_index"`
	ValidatorIndex  uint64    `ch:"validator_index"`
	Address         string    `ch:"address"`
	Amount          uint64    `ch:"amount"`
	TimestampUTC    time.Time `ch:"timestamp_utc"`
	InsertVersion   uint64    `ch:"insert_version"`
}

type AttestationRow struct {
	Slot             uint64    `ch:"slot"`
	AttestationIndex uint64    `ch:"attestation_index"`
	AggregationBits  string    `ch:"aggregation_bits"`
	CommitteeBits    *string   `ch:"committee_bits"`
	AttestationSlot  uint64    `ch:"attestation_slot"`
	CommitteeIndex   uint64    `ch:"committee_index"`
	BeaconBlockRoot  string    `ch:"beacon_block_root"`
	SourceEpoch      uint64    `ch:"source_epoch"`
	SourceRoot       string    `ch:"source_root"`
	TargetEpoch      uint64    `ch:"target_epoch"`
	TargetRoot       string    `ch:"target_root"`
	Signature        string    `ch:"signature"`
	TimestampUTC     time.Time `ch:"timestamp_utc"`
	InsertVersion    uint64    `ch:"insert_version"`
}

type DepositRow struct {
	Slot                  uint64    `ch:"slot"`
	DepositIndex          uint64    `ch:"deposit_index"`
	Pubkey                string    `ch:"pubkey"`
	WithdrawalCredentials string    `ch:"withdrawal_credentials"`
	Amount                uint64    `ch:"amount"`
	Signature             string    `ch:"signature"`
	TimestampUTC          time.Time `ch:"timestamp_utc"`
	InsertVersion         uint64    `ch:"insert_version"`
}

type VoluntaryExitRow struct {
	Slot           uint64    `ch:"slot"`
	ExitIndex      uint64    `ch:"exit_index"`
	Epoch          uint64    `ch:"epoch"`
	ValidatorIndex uint64    `ch:"validator_index"`
	Signature      string    `ch:"signature"`
	TimestampUTC   time.Time `ch:"timestamp_utc"`
	InsertVersion  uint64    `ch:"insert_version"`
}

type ProposerSlashingRow struct {
	Slot                 uint64    `ch:"slot"`
	SlashingIndex        uint64    `ch:"slashing_index"`
	Header1Slot          uint64    `ch:"header_1_slot"`
	Header1ProposerIndex uint64    `ch:"header_1_proposer_index"`
	Header1ParentRoot    string    `ch:"header_1_parent_root"`
	Header1StateRoot     string    `ch:"header_1_state_root"`
	Header1BodyRoot      string    `ch:"header_1_body_root"`
	Header1Signature     string    `ch:"header_1_signature"`
	Header2Slot          uint64    `ch:"header_2_slot"`
	Header2ProposerIndex uint64    `ch:"header_2_proposer_index"`
	Header2ParentRoot    string    `ch:"header_2_parent_root"`
	Header2StateRoot     string    `ch:"header_2_state_root"`
	Header2BodyRoot      string    `ch:"header_2_body_root"`
	Header2Signature     string    `ch:"header_2_signature"`
	TimestampUTC         time.Time `ch:"timestamp_utc"`
	InsertVersion        uint64    `ch:"insert_version"`
}

type AttesterSlashingRow struct {
	Slot                   uint64    `ch:"slot"`
	SlashingIndex          uint64    `ch:"slashing_index"`
	Att1Slot               uint64    `ch:"att_1_slot"`
	Att1CommitteeIndex     uint64    `ch:"att_1_committee_index"`
	Att1BeaconBlockRoot    string    `ch:"att_1_beacon_block_root"`
	Att1SourceEpoch        uint64    `ch:"att_1_source_epoch"`
	Att1TargetEpoch        uint64    `ch:"att_1_target_epoch"`
	Att1AttestingIndices   string    `ch:"att_1_attesting_indices"`
	Att1ValidatorCount     uint64    `ch:"att_1_validator_count"`
	Att2Slot               uint64    `ch:"att_2_slot"`
	Att2CommitteeIndex     uint64    `ch:"att_2_committee_index"`
	Att2BeaconBlockRoot    string    `ch:"att_2_beacon_block_root"`
	Att2SourceEpoch        uint64    `ch:"att_2_source_epoch"`
	Att2TargetEpoch        uint64    `ch:"att_2_target_epoch"`
	Att2AttestingIndices   string    `ch:"att_2_attesting_indices"`
	Att2ValidatorCount     uint64    `ch:"att_2_validator_count"`
	TotalSlashedValidators uint64    `ch:"total_slashed_validators"`
	TimestampUTC           time.Time `ch:"timestamp_utc"`
	InsertVersion          uint64    `ch:"insert_version"`
}

type BLSChangeRow struct {
	Slot               uint64    `ch:"slot"`
	ChangeIndex        uint64    `ch:"change_index"`
	ValidatorIndex     uint64    `ch:"validator_index"`
	FromBLSPubkey      string    `ch:"from_bls_pubkey"`
	ToExecutionAddress string    `ch:"to_execution_address"`
	Signature          string    `ch:"signature"`
	TimestampUTC       time.Time `ch:"timestamp_utc"`
	InsertVersion      uint64    `ch:"insert_version"`
}

type BlobCommitmentRow struct {
	Slot            uint64    `ch:"slot"`
	CommitmentIndex uint64    `ch:"commitment_index"`
	Commitment      string    `ch:"commitment"`
	TimestampUTC    time.Time `ch:"timestamp_utc"`
	InsertVersion   uint64    `ch:"insert_version"`
}

type DepositRequestRow struct {
	Slot                  uint64    `ch:"slot"`
	RequestIndex          uint64    `ch:"request_index"`
	Pubkey                string    `ch:"pubkey"`
	WithdrawalCredentials string    `ch:"withdrawal_credentials"`
	Amount                uint64    `ch:"amount"`
	Signature             string    `ch:"signature"`
	Index                 uint64    `ch:"deposit_index"`
	TimestampUTC          time.Time `ch:"timestamp_utc"`
	InsertVersion         uint64    `ch:"insert_version"`
}

type WithdrawalRequestRow struct {
	Slot            uint64    `ch:"slot"`
	RequestIndex    uint64    `ch:"request_index"`
	SourceAddress   string    `ch:"source_address"`
	ValidatorPubkey string    `ch:"validator_pubkey"`
	Amount          uint64    `ch:"amount"`
	TimestampUTC    time.Time `ch:"timestamp_utc"`
	InsertVersion   uint64    `ch:"insert_version"`
}

type ConsolidationRequestRow struct {
	Slot          uint64    `ch:"slot"`
	RequestIndex  uint64    `ch:"request_index"`
	SourceAddress string    `ch:"source_address"`
	SourcePubkey  string    `ch:"source_pubkey"`
	TargetPubkey  string    `ch:"target_pubkey"`
	TimestampUTC  time.Time `ch:"timestamp_utc"`
	InsertVersion uint64    `ch:"insert_version"`
}

// Batch accumulates the rows of one era attempt, keyed by dataset.
type Batch struct {
	rows map[string][]any
}

// NewBatch returns an empty row accumulator.
func NewBatch() *Batch {
	return &Batch{rows: make(map[string][]any)}
}

// Append adds one row to a dataset.
func (b *Batch) Append(dataset string, row any) {
	b.rows[dataset] = append(b.rows[dataset], row)
}

// Rows returns the accumulated rows of a dataset, nil when empty.
func (b *Batch) Rows(dataset string) []any {
	return b.rows[dataset]
}

// Counts returns the per-dataset row counts, omitting empty datasets.
func (b *Batch) Counts() map[string]uint64 {
	counts := make(map[string]uint64, len(b.rows))
	for name, rows := range b.rows {
		if len(rows) > 0 {
			counts[name] = uint64(len(rows))
		}
	}
	return counts
}

// Total returns the total number of accumulated rows.
func (b *Batch) Total() uint64 {
	var total uint64
	for _, rows := range b.rows {
		total += uint64(len(rows))
	}
	return total
}
