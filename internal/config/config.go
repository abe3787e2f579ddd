// Package config loads simulation scenarios from HCL files and resolves
// them into engine configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/evodyn/internal/dynamics"
)

// EnvSeed overrides the scenario's seed when set, so batch drivers can fan
// out runs without editing scenario files.
const EnvSeed = "EVODYN_SEED"

// Scenario is the top-level HCL document: two population blocks and one
// protocol block.
type Scenario struct {
	Seed        int64             `hcl:"seed,optional"`
	Ticks       int               `hcl:"ticks,optional"`
	Populations []PopulationBlock `hcl:"population,block"`
	Protocol    ProtocolBlock     `hcl:"protocol,block"`
}

// PopulationBlock configures one population: its payoff table and either an
// explicit per-strategy count vector or a size for random initialisation.
type PopulationBlock struct {
	ID      string      `hcl:"id,label"`
	Payoffs [][]float64 `hcl:"payoffs"`
	Counts  []int       `hcl:"counts,optional"`
	Size    int         `hcl:"size,optional"`
}

// ProtocolBlock is the revision protocol in its string form. Omitted fields
// fall back to the defaults applied in applyDefaults.
type ProtocolBlock struct {
	Candidates string `hcl:"candidates,optional"`
	Decision   string `hcl:"decision,optional"`
	TieBreaker string `hcl:"tie_breaker,optional"`
	Matching   string `hcl:"matching,optional"`

	Trials                int    `hcl:"trials,optional"`
	TrialsWithReplacement *bool  `hcl:"trials_with_replacement,optional"`
	SampleReuse           string `hcl:"sample_reuse,optional"`

	Imitatees                int   `hcl:"imitatees,optional"`
	ImitateesWithReplacement *bool `hcl:"imitatees_with_replacement,optional"`
	ConsiderImitatingSelf    *bool `hcl:"consider_imitating_self,optional"`

	TestSetSize int `hcl:"test_set_size,optional"`

	Scheduling    string  `hcl:"scheduling,optional"`
	RevisionProb  float64 `hcl:"revision_prob,optional"`
	RevisionCount int     `hcl:"revision_count,optional"`

	MutationProb    float64 `hcl:"mutation_prob,optional"`
	Eta             float64 `hcl:"eta,optional"`
	RandomWalkSpeed float64 `hcl:"random_walk_speed,optional"`
}

// Load reads and resolves a scenario file.
func Load(filename string) (*Scenario, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes scenario HCL from a byte slice. The filename is used only
// for diagnostics.
func Parse(src []byte, filename string) (*Scenario, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario: %s", diags.Error())
	}

	var s Scenario
	diags = gohcl.DecodeBody(file.Body, nil, &s)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario: %s", diags.Error())
	}

	s.applyDefaults()
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.Ticks == 0 {
		s.Ticks = 1000
	}
	p := &s.Protocol
	if p.Candidates == "" {
		p.Candidates = "direct"
	}
	if p.Decision == "" {
		p.Decision = "best"
	}
	if p.TieBreaker == "" {
		p.TieBreaker = "stick-uniform"
	}
	if p.Matching == "" {
		p.Matching = "complete"
	}
	if p.Trials == 0 {
		p.Trials = 10
	}
	if p.SampleReuse == "" {
		p.SampleReuse = "fixed"
	}
	if p.Imitatees == 0 {
		p.Imitatees = 1
	}
	if p.TestSetSize == 0 {
		p.TestSetSize = 2
	}
	if p.Scheduling == "" {
		p.Scheduling = "probabilistic"
	}
	if p.Scheduling == "probabilistic" && p.RevisionProb == 0 {
		p.RevisionProb = 0.1
	}
	if p.Eta == 0 {
		p.Eta = 0.5
	}
}

func (s *Scenario) applyEnv() error {
	seedStr := os.Getenv(EnvSeed)
	if seedStr == "" {
		return nil
	}
	seed, err := strconv.ParseInt(seedStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", EnvSeed, err)
	}
	s.Seed = seed
	return nil
}

// EngineConfig resolves the scenario's string-form protocol into the
// engine's typed configuration. Unknown names and malformed population
// blocks are reported here, before any simulation state exists.
func (s *Scenario) EngineConfig() (dynamics.Config, error) {
	var cfg dynamics.Config
	cfg.Seed = s.Seed

	if len(s.Populations) != 2 {
		return cfg, fmt.Errorf("scenario needs exactly 2 population blocks, got %d", len(s.Populations))
	}
	for _, block := range s.Populations {
		idx, err := populationIndex(block.ID)
		if err != nil {
			return cfg, err
		}
		if block.Counts == nil && block.Size == 0 {
			return cfg, fmt.Errorf("population %q: set counts or size", block.ID)
		}
		cfg.Populations[idx] = dynamics.PopulationSetup{
			Payoffs:       block.Payoffs,
			InitialCounts: block.Counts,
			Size:          block.Size,
		}
	}
	if cfg.Populations[0].Payoffs == nil || cfg.Populations[1].Payoffs == nil {
		return cfg, fmt.Errorf(`scenario needs population "1" and population "2"`)
	}

	proto, err := s.Protocol.resolve()
	if err != nil {
		return cfg, err
	}
	cfg.Protocol = proto
	return cfg, nil
}

func populationIndex(id string) (int, error) {
	switch id {
	case "1":
		return 0, nil
	case "2":
		return 1, nil
	}
	return 0, fmt.Errorf(`population label must be "1" or "2", got %q`, id)
}

func (p ProtocolBlock) resolve() (dynamics.Protocol, error) {
	var proto dynamics.Protocol
	var err error

	if proto.Candidates, err = dynamics.ParseCandidateSelection(p.Candidates); err != nil {
		return proto, err
	}
	if proto.Decision, err = dynamics.ParseDecisionMethod(p.Decision); err != nil {
		return proto, err
	}
	if proto.TieBreak, err = dynamics.ParseTieBreakRule(p.TieBreaker); err != nil {
		return proto, err
	}
	if proto.Matching, err = dynamics.ParseMatching(p.Matching); err != nil {
		return proto, err
	}
	if proto.SampleReuse, err = dynamics.ParseSampleReuse(p.SampleReuse); err != nil {
		return proto, err
	}
	if proto.Scheduling, err = dynamics.ParseScheduling(p.Scheduling); err != nil {
		return proto, err
	}

	proto.Trials = p.Trials
	proto.TrialsWithReplacement = boolOr(p.TrialsWithReplacement, true)
	proto.Imitatees = p.Imitatees
	proto.ImitateesWithReplacement = boolOr(p.ImitateesWithReplacement, false)
	proto.ConsiderImitatingSelf = boolOr(p.ConsiderImitatingSelf, false)
	proto.TestSetSize = p.TestSetSize
	proto.RevisionProb = p.RevisionProb
	proto.RevisionCount = p.RevisionCount
	proto.MutationProb = p.MutationProb
	proto.Eta = p.Eta
	proto.RandomWalkSpeed = p.RandomWalkSpeed

	if err := proto.Validate(); err != nil {
		return proto, err
	}
	return proto, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
