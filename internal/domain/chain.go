package domain

import (
	"math/big"
	"time"
)

// PCVStats is the collateralization oracle reading.
type PCVStats struct {
	ProtocolControlledValue *big.Int
	UserCirculatingFei      *big.Int
	ProtocolEquity          *big.Int
	Valid                   bool
}

// RunMode is how a proposal was executed during a check.
type RunMode string

const (
	// RunSimulate impersonates the executor timelock and sends each command.
	RunSimulate RunMode = "simulate"
	// RunExec drives an on-chain governor proposal through vote, queue and execute.
	RunExec RunMode = "exec"
)

// RunRecord is the persisted outcome of one proposal check.
type RunRecord struct {
	ID        string
	Proposal  string
	Mode      RunMode
	Block     uint64
	StartedAt time.Time
	Duration  time.Duration
	Passed    bool
	Failures  []string
	PCVDelta  string
}
