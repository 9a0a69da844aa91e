// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package warehouse

import (
	"context"

	"github.com/pkg/errors"
)

// Every dataset table is a ReplacingMergeTree keyed by its natural identity
// and versioned by insert_version, so re-processing an era is last-write-wins
// for every row. Tables are partitioned by month of the canonical timestamp.
var datasetDDL = map[string]string{
	"blocks": `
CREATE TABLE IF NOT EXISTS blocks (
    slot               UInt64,
    proposer_index     UInt64,
    parent_root        String,
    state_root         String,
    signature          String,
    randao_reveal      String,
    graffiti           String,
    graffiti_text      String,
    eth1_deposit_root  String,
    eth1_deposit_count UInt64,
    eth1_block_hash    String,
    fork               String,
    timestamp_utc      DateTime,
    insert_version     UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot)`,

	"sync_aggregates": `
CREATE TABLE IF NOT EXISTS sync_aggregates (
    slot                     UInt64,
    sync_committee_bits      String,
    sync_committee_signature String,
    participating_validators UInt64,
    timestamp_utc            DateTime,
    insert_version           UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot)`,

	"execution_payloads": `
CREATE TABLE IF NOT EXISTS execution_payloads (
    slot               UInt64,
    block_number       UInt64,
    block_hash         String,
    parent_hash        String,
    fee_recipient      String,
    state_root         String,
    receipts_root      String,
    prev_randao        String,
    gas_limit          UInt64,
    gas_used           UInt64,
    timestamp          UInt64,
    extra_data         String,
    base_fee_per_gas   String,
    blob_gas_used      Nullable(UInt64),
    excess_blob_gas    Nullable(UInt64),
    transactions_count UInt64,
    withdrawals_count  UInt64,
    timestamp_utc      DateTime,
    insert_version     UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot)`,

	"transactions": `
CREATE TABLE IF NOT EXISTS transactions (
    slot              UInt64,
    block_number      UInt64,
    block_hash        String,
    transaction_index UInt64,
    transaction_hash  String,
    fee_recipient     String,
    gas_limit         UInt64,
    gas_used          UInt64,
    base_fee_per_gas  String,
    timestamp_utc     DateTime,
    insert_version    UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, transaction_index)`,

	"withdrawals": `
CREATE TABLE IF NOT EXISTS withdrawals (
    slot             UInt64,
    block_number     UInt64,
    withdrawal_index UInt64,
    validator_index  UInt64,
    address          String,
    amount           UInt64,
    timestamp_utc    DateTime,
    insert_version   UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, withdrawal_index)`,

	"attestations": `
CREATE TABLE IF NOT EXISTS attestations (
    slot              UInt64,
    attestation_index UInt64,
    aggregation_bits  String,
    committee_bits    Nullable(String),
    attestation_slot  UInt64,
    committee_index   UInt64,
    beacon_block_root String,
    source_epoch      UInt64,
    source_root       String,
    target_epoch      UInt64,
    target_root       String,
    signature         String,
    timestamp_utc     DateTime,
    insert_version    UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, attestation_index)`,

	"deposits": `
CREATE TABLE IF NOT EXISTS deposits (
    slot                   UInt64,
    deposit_index          UInt64,
    pubkey                 String,
    withdrawal_credentials String,
    amount                 UInt64,
    signature              String,
    timestamp_utc          DateTime,
    insert_version         UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, deposit_index)`,

	"voluntary_exits": `
CREATE TABLE IF NOT EXISTS voluntary_exits (
    slot            UInt64,
    exit_index      UInt64,
    epoch           UInt64,
    validator_index UInt64,
    signature       String,
    timestamp_utc   DateTime,
    insert_version  UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, exit_index)`,

	"proposer_slashings": `
CREATE TABLE IF NOT EXISTS proposer_slashings (
    slot                    UInt64,
    slashing_index          UInt64,
    header_1_slot           UInt64,
    header_1_proposer_index UInt64,
    header_1_parent_root    String,
    header_1_state_root     String,
    header_1_body_root      String,
    header_1_signature      String,
    header_2_slot           UInt64,
    header_2_proposer_index UInt64,
    header_2_parent_root    String,
    header_2_state_root     String,
    header_2_body_root      String,
    header_2_signature      String,
    timestamp_utc           DateTime,
    insert_version          UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, slashing_index)`,

	"attester_slashings": `
CREATE TABLE IF NOT EXISTS attester_slashings (
    slot                     UInt64,
    slashing_index           UInt64,
    att_1_slot               UInt64,
    att_1_committee_index    UInt64,
    att_1_beacon_block_root  String,
    att_1_source_epoch       UInt64,
    att_1_target_epoch       UInt64,
    att_1_attesting_indices  String,
    att_1_validator_count    UInt64,
    att_2_slot               UInt64,
    att_2_committee_index    UInt64,
    att_2_beacon_block_root  String,
    att_2_source_epoch       UInt64,
    att_2_target_epoch       UInt64,
    att_2_attesting_indices  String,
    att_2_validator_count    UInt64,
    total_slashed_validators UInt64,
    timestamp_utc            DateTime,
    insert_version           UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, slashing_index)`,

	"bls_changes": `
CREATE TABLE IF NOT EXISTS bls_changes (
    slot                 UInt64,
    change_index         UInt64,
    validator_index      UInt64,
    from_bls_pubkey      String,
    to_execution_address String,
    signature            String,
    timestamp_utc        DateTime,
    insert_version       UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, change_index)`,

	"blob_commitments": `
CREATE TABLE IF NOT EXISTS blob_commitments (
    slot             UInt64,
    commitment_index UInt64,
    commitment       String,
    timestamp_utc    DateTime,
    insert_version   UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, commitment_index)`,

	"deposit_requests": `
CREATE TABLE IF NOT EXISTS deposit_requests (
    slot                   UInt64,
    request_index          UInt64,
    pubkey                 String,
    withdrawal_credentials String,
    amount                 UInt64,
    signature              String,
    deposit_index          UInt64,
    timestamp_utc          DateTime,
    insert_version         UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, request_index)`,

	"withdrawal_requests": `
CREATE TABLE IF NOT EXISTS withdrawal_requests (
    slot             UInt64,
    request_index    UInt64,
    source_address   String,
    validator_pubkey String,
    amount           UInt64,
    timestamp_utc    DateTime,
    insert_version   UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, request_index)`,

	"consolidation_requests": `
CREATE TABLE IF NOT EXISTS consolidation_requests (
    slot           UInt64,
    request_index  UInt64,
    source_address String,
    source_pubkey  String,
    target_pubkey  String,
    timestamp_utc  DateTime,
    insert_version UInt64
) ENGINE = ReplacingMergeTree(insert_version)
PARTITION BY toYYYYMM(timestamp_utc)
ORDER BY (slot, request_index)`,
}

// completionDDL is the per-(network, era) state table plus the view collapsing
// it to the record with the highest insert_version.
var completionDDL = []string{`
CREATE TABLE IF NOT EXISTS era_completion (
    network               String,
    era_number            UInt64,
    status                String,
    slot_start            UInt64,
    slot_end              UInt64,
    total_records         UInt64,
    datasets_processed    Array(String),
    processing_started_at DateTime,
    completed_at          Nullable(DateTime),
    error_message         String,
    retry_count           UInt32,
    insert_version        UInt64
) ENGINE = ReplacingMergeTree(insert_version)
ORDER BY (network, era_number)`, `
CREATE VIEW IF NOT EXISTS era_completion_current AS
SELECT
    network,
    era_number,
    argMax(status, insert_version)                AS status,
    argMax(slot_start, insert_version)            AS slot_start,
    argMax(slot_end, insert_version)              AS slot_end,
    argMax(total_records, insert_version)         AS total_records,
    argMax(datasets_processed, insert_version)    AS datasets_processed,
    argMax(processing_started_at, insert_version) AS processing_started_at,
    argMax(completed_at, insert_version)          AS completed_at,
    argMax(error_message, insert_version)         AS error_message,
    argMax(retry_count, insert_version)           AS retry_count,
    max(insert_version)                           AS insert_version
FROM era_completion
GROUP BY network, era_number`,
}

// EnsureSchema creates every dataset table, the state table and its current
// view when they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for table, ddl := range datasetDDL {
		if err := db.Exec(ctx, ddl); err != nil {
			return errors.Wrapf(err, "warehouse: create table %s", table)
		}
	}
	for _, ddl := range completionDDL {
		if err := db.Exec(ctx, ddl); err != nil {
			return errors.Wrap(err, "warehouse: create state table")
		}
	}
	return nil
}

// DatasetTables returns the dataset table names the schema manages.
func DatasetTables() []string {
	tables := make([]string, 0, len(datasetDDL))
	for table := range datasetDDL {
		tables = append(tables, table)
	}
	return tables
}
