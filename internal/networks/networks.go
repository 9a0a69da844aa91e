// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package networks is the read-only registry of consensus-layer parameters for
// the networks whose era files the pipeline understands.
package networks

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gnosischain/era-ingest/internal/ssz"
)

//go:embed presets.yaml
var presetsYAML []byte

// preset mirrors one network entry of the embedded registry document.
type preset struct {
	GenesisTime            uint64            `yaml:"genesis_time"`
	SecondsPerSlot         uint64            `yaml:"seconds_per_slot"`
	SlotsPerEpoch          uint64            `yaml:"slots_per_epoch"`
	SlotsPerHistoricalRoot uint64            `yaml:"slots_per_historical_root"`
	Forks                  map[string]uint64 `yaml:"forks"`
}

// forkActivation pairs a decoder fork with the epoch it activates at.
type forkActivation struct {
	fork  ssz.Fork
	epoch uint64
}

// Config carries the timing and fork schedule of one network.
type Config struct {
	Name                   string
	GenesisTime            uint64
	SecondsPerSlot         uint64
	SlotsPerEpoch          uint64
	SlotsPerHistoricalRoot uint64

	schedule []forkActivation // ordered by activation epoch, then fork
}

// detectionOrder is the priority order for substring matching in filenames.
// Specific testnet names come before mainnet so that an ambiguous name never
// falls through to the wrong registry entry.
var detectionOrder = []string{"gnosis", "sepolia", "mainnet"}

// filenamePattern is the canonical era file naming scheme:
// <network>-<5-digit-era>-<8-hex-root>.era
var filenamePattern = regexp.MustCompile(`^([a-zA-Z0-9]+)-(\d{5})-([0-9a-fA-F]{8})\.era$`)

var registry = mustLoadRegistry()

func mustLoadRegistry() map[string]*Config {
	var doc map[string]preset
	if err := yaml.Unmarshal(presetsYAML, &doc); err != nil {
		panic(fmt.Sprintf("networks: invalid embedded presets: %v", err))
	}
	configs := make(map[string]*Config, len(doc))
	for name, p := range doc {
		cfg := &Config{
			Name:                   name,
			GenesisTime:            p.GenesisTime,
			SecondsPerSlot:         p.SecondsPerSlot,
			SlotsPerEpoch:          p.SlotsPerEpoch,
			SlotsPerHistoricalRoot: p.SlotsPerHistoricalRoot,
		}
		for forkName, epoch := range p.Forks {
			fork, ok := ssz.ForkMapping[forkName]
			if !ok {
				panic(fmt.Sprintf("networks: unknown fork %q in preset %q", forkName, name))
			}
			cfg.schedule = append(cfg.schedule, forkActivation{fork: fork, epoch: epoch})
		}
		sort.Slice(cfg.schedule, func(i, j int) bool {
			if cfg.schedule[i].epoch != cfg.schedule[j].epoch {
				return cfg.schedule[i].epoch < cfg.schedule[j].epoch
			}
			return cfg.schedule[i].fork < cfg.schedule[j].fork
		})
		configs[name] = cfg
	}
	return configs
}

// Lookup returns the configuration of a known network.
func Lookup(name string) (*Config, error) {
	cfg, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("networks: unknown network %q", name)
	}
	return cfg, nil
}

// Names returns the known network names in detection priority order.
func Names() []string {
	return append([]string(nil), detectionOrder...)
}

// ForkAt returns the fork whose body layout a block at the given slot uses:
// the highest fork whose activation epoch is at or below the slot's epoch.
func (c *Config) ForkAt(slot uint64) ssz.Fork {
	epoch := slot / c.SlotsPerEpoch
	fork := ssz.ForkPhase0
	for _, act := range c.schedule {
		if act.epoch <= epoch {
			fork = act.fork
		}
	}
	return fork
}

// TimestampAt computes the wall-clock time a slot occurs at.
func (c *Config) TimestampAt(slot uint64) time.Time {
	return time.Unix(int64(c.GenesisTime+slot*c.SecondsPerSlot), 0).UTC()
}

// EraRange returns the inclusive slot range an era covers.
func (c *Config) EraRange(era uint64) (start, end uint64) {
	start = era * c.SlotsPerHistoricalRoot
	return start, start + c.SlotsPerHistoricalRoot - 1
}

// EraOfSlot returns the era number a slot belongs to.
func (c *Config) EraOfSlot(slot uint64) uint64 {
	return slot / c.SlotsPerHistoricalRoot
}

// DetectNetwork infers the network from an era filename by case-insensitive
// substring match in priority order. The empty string means no match.
func DetectNetwork(filename string) string {
	lower := strings.ToLower(filename)
	for _, name := range detectionOrder {
		if strings.Contains(lower, name) {
			return name
		}
	}
	return ""
}

// ParseFilename splits a canonical era filename into its parts.
func ParseFilename(filename string) (network string, era uint64, shortRoot string, err error) {
	m := filenamePattern.FindStringSubmatch(filename)
	if m == nil {
		return "", 0, "", errors.Errorf("networks: filename %q does not match <network>-<era>-<root>.era", filename)
	}
	n, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return "", 0, "", errors.Wrapf(err, "networks: era number in %q", filename)
	}
	return strings.ToLower(m[1]), n, strings.ToLower(m[3]), nil
}

// Filename renders the canonical era filename.
func Filename(network string, era uint64, shortRoot string) string {
	return fmt.Sprintf("%s-%05d-%s.era", network, era, shortRoot)
}
