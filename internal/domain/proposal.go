package domain

import "fmt"

// Category selects which timelock executes a proposal.
type Category string

const (
	CategoryDAO     Category = "DAO"
	CategoryOA      Category = "OA"
	CategoryTC      Category = "TC"
	CategoryDebug   Category = "DEBUG"
	CategoryDebugOA Category = "DEBUG_OA"
	CategoryDebugTC Category = "DEBUG_TC"
	CategoryNone    Category = "NONE"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryDAO, CategoryOA, CategoryTC, CategoryDebug, CategoryDebugOA, CategoryDebugTC, CategoryNone:
		return true
	}
	return false
}

// Debug reports whether proposals of this category are only simulated.
func (c Category) Debug() bool {
	return c == CategoryDebug || c == CategoryDebugOA || c == CategoryDebugTC
}

// Executor returns the address book name of the timelock that runs c.
func (c Category) Executor() (string, error) {
	switch c {
	case CategoryDAO, CategoryDebug:
		return "feiDAOTimelock", nil
	case CategoryTC, CategoryDebugTC:
		return "tribalCouncilTimelock", nil
	case CategoryOA, CategoryDebugOA:
		return "optimisticTimelock", nil
	}
	return "", fmt.Errorf("category %q has no executor", c)
}

// Command is one call the timelock performs. Target is an address book
// name or a literal address; Arguments are templates resolved against the
// address book at render time.
type Command struct {
	Target      string   `yaml:"target" json:"target"`
	Value       string   `yaml:"value,omitempty" json:"value,omitempty"`
	Method      string   `yaml:"method" json:"method"`
	Arguments   []string `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Step is a call sent from an impersonated account during setup or teardown.
type Step struct {
	From    string `yaml:"from" json:"from"`
	Command `yaml:",inline"`
}

// Read is an eth_call whose result is recorded or compared.
// Returns is a single ABI type or a parenthesised tuple; Index picks the
// tuple element.
type Read struct {
	Name      string   `yaml:"name" json:"name"`
	Target    string   `yaml:"target" json:"target"`
	Method    string   `yaml:"method" json:"method"`
	Arguments []string `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Returns   string   `yaml:"returns" json:"returns"`
	Index     int      `yaml:"index,omitempty" json:"index,omitempty"`
}

// CheckOp is a comparison applied by a Check.
type CheckOp string

const (
	OpEq      CheckOp = "eq"
	OpNeq     CheckOp = "neq"
	OpGt      CheckOp = "gt"
	OpGte     CheckOp = "gte"
	OpLt      CheckOp = "lt"
	OpLte     CheckOp = "lte"
	OpBetween CheckOp = "between"
)

// Check validates post-execution state. When DeltaOf names a capture, the
// compared quantity is (value now - captured value).
type Check struct {
	Read    `yaml:",inline"`
	Op      CheckOp `yaml:"op" json:"op"`
	Value   string  `yaml:"value,omitempty" json:"value,omitempty"`
	Min     string  `yaml:"min,omitempty" json:"min,omitempty"`
	Max     string  `yaml:"max,omitempty" json:"max,omitempty"`
	DeltaOf string  `yaml:"delta_of,omitempty" json:"delta_of,omitempty"`
}

// Deploy creates a contract from a compiled artifact before the proposal runs.
// The deployed address is registered in the address book under Name.
type Deploy struct {
	Name        string   `yaml:"name" json:"name"`
	Artifact    string   `yaml:"artifact" json:"artifact"`
	Constructor string   `yaml:"constructor,omitempty" json:"constructor,omitempty"`
	Arguments   []string `yaml:"arguments,omitempty" json:"arguments,omitempty"`
}

// ProposalDescription is the declarative body of a proposal.
type ProposalDescription struct {
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Deploys     []Deploy  `yaml:"deploys,omitempty" json:"deploys,omitempty"`
	Setup       []Step    `yaml:"setup,omitempty" json:"setup,omitempty"`
	Captures    []Read    `yaml:"captures,omitempty" json:"captures,omitempty"`
	Commands    []Command `yaml:"commands" json:"commands"`
	Teardown    []Step    `yaml:"teardown,omitempty" json:"teardown,omitempty"`
	Checks      []Check   `yaml:"checks,omitempty" json:"checks,omitempty"`
}

// ProposalConfig is a proposals config entry.
type ProposalConfig struct {
	Name                      string   `yaml:"-" json:"name"`
	Deploy                    bool     `yaml:"deploy" json:"deploy"`
	TotalValue                string   `yaml:"total_value" json:"total_value"`
	ProposalID                string   `yaml:"proposal_id" json:"proposal_id"`
	Category                  Category `yaml:"category" json:"category"`
	AffectedContractSignoff   []string `yaml:"affected_contract_signoff,omitempty" json:"affected_contract_signoff,omitempty"`
	DeprecatedContractSignoff []string `yaml:"deprecated_contract_signoff,omitempty" json:"deprecated_contract_signoff,omitempty"`
	File                      string   `yaml:"file" json:"file"`
}

// Proposal pairs a config entry with its loaded description.
type Proposal struct {
	Config      ProposalConfig
	Description ProposalDescription
}
