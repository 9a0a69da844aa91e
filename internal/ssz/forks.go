// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssz

// Fork is an enum of the consensus-layer hard forks a beacon block body can be
// encoded for. The values are only meaningful in relation to one another (the
// decoder compares them to decide which fields of a monolith type are live) and
// are meaningless numbers otherwise. Do not persist them across code versions.
type Fork int

const (
	ForkUnknown Fork = iota // Placeholder if the fork hasn't been specified (must be index 0)

	ForkPhase0
	ForkAltair
	ForkBellatrix
	ForkCapella
	ForkDeneb
	ForkElectra

	ForkFuture // Use this for specifying future features (must be last index, no gaps)
)

// forkNames indexes the canonical lowercase names by Fork value.
var forkNames = [...]string{
	ForkUnknown:   "unknown",
	ForkPhase0:    "phase0",
	ForkAltair:    "altair",
	ForkBellatrix: "bellatrix",
	ForkCapella:   "capella",
	ForkDeneb:     "deneb",
	ForkElectra:   "electra",
	ForkFuture:    "future",
}

// ForkMapping maps fork names to fork values, used to convert the network
// registry's activation tables into decoder forks.
var ForkMapping = map[string]Fork{
	"phase0":    ForkPhase0,
	"altair":    ForkAltair,
	"bellatrix": ForkBellatrix,
	"capella":   ForkCapella,
	"deneb":     ForkDeneb,
	"electra":   ForkElectra,
	"future":    ForkFuture,
}

// String implements fmt.Stringer.
func (f Fork) String() string {
	if f < 0 || int(f) >= len(forkNames) {
		return "invalid"
	}
	return forkNames[f]
}

// ForkFilter can be used by the XXXOnFork decoder methods inside monolith types
// to define certain fields appearing only in certain forks.
type ForkFilter struct {
	Added   Fork
	Removed Fork
}

// ForkOnward is a shorthand filter for a field that appears in the given fork
// and every fork after it.
func ForkOnward(f Fork) ForkFilter {
	return ForkFilter{Added: f}
}

// active reports whether a field gated by the filter is present in the given
// fork's encoding.
func (f ForkFilter) active(fork Fork) bool {
	if f.Added != ForkUnknown && fork < f.Added {
		return false
	}
	if f.Removed != ForkUnknown && fork >= f.Removed {
		return false
	}
	return true
}
