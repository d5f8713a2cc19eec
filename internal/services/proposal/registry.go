package proposal

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"feigov/internal/domain"
)

//go:embed builtin
var builtinFS embed.FS

const indexFile = "proposals.yaml"

var (
	ErrUnknownProposal = errors.New("unknown proposal")
	ErrBadProposal     = errors.New("invalid proposal")
)

// Registry resolves proposal names to configs and descriptions.
type Registry struct {
	configs map[string]domain.ProposalConfig
	sources []fs.FS
}

// NewRegistry loads the proposal index from indexPath (built-in when empty).
// Descriptions are looked up in descDir first, then among the built-ins.
func NewRegistry(indexPath, descDir string) (*Registry, error) {
	builtin, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	var index []byte
	if indexPath == "" {
		index, err = fs.ReadFile(builtin, indexFile)
	} else {
		index, err = os.ReadFile(indexPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read proposal index: %w", err)
	}
	configs, err := ParseIndex(index)
	if err != nil {
		return nil, err
	}

	descs, err := fs.Sub(builtin, "descriptions")
	if err != nil {
		return nil, err
	}
	r := &Registry{configs: configs}
	if descDir != "" {
		r.sources = append(r.sources, os.DirFS(descDir))
	}
	r.sources = append(r.sources, descs)
	return r, nil
}

// ParseIndex decodes a proposal index document.
func ParseIndex(b []byte) (map[string]domain.ProposalConfig, error) {
	var raw map[string]domain.ProposalConfig
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode proposal index: %w", err)
	}
	for name, c := range raw {
		c.Name = name
		if c.File == "" {
			c.File = name + ".yaml"
		}
		if !c.Category.Valid() {
			return nil, fmt.Errorf("%w: %s has category %q", ErrBadProposal, name, c.Category)
		}
		raw[name] = c
	}
	return raw, nil
}

// Names returns every registered proposal, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for n := range r.configs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Config returns the index entry for name.
func (r *Registry) Config(name string) (domain.ProposalConfig, error) {
	c, ok := r.configs[name]
	if !ok {
		return domain.ProposalConfig{}, fmt.Errorf("%w: %q", ErrUnknownProposal, name)
	}
	return c, nil
}

// Get loads the config and description of name.
func (r *Registry) Get(name string) (domain.Proposal, error) {
	c, err := r.Config(name)
	if err != nil {
		return domain.Proposal{}, err
	}
	for _, src := range r.sources {
		b, err := fs.ReadFile(src, c.File)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.Proposal{}, err
		}
		d, err := ParseDescription(b)
		if err != nil {
			return domain.Proposal{}, fmt.Errorf("%s: %w", c.File, err)
		}
		return domain.Proposal{Config: c, Description: d}, nil
	}
	return domain.Proposal{}, fmt.Errorf("%w: description %s for %q not found", ErrUnknownProposal, c.File, name)
}

// ParseDescription decodes and validates a description document. Unknown
// fields are rejected.
func ParseDescription(b []byte) (domain.ProposalDescription, error) {
	var d domain.ProposalDescription
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return d, fmt.Errorf("decode description: %w", err)
	}
	if d.Title == "" {
		return d, fmt.Errorf("%w: missing title", ErrBadProposal)
	}
	for i, c := range d.Commands {
		if c.Target == "" || c.Method == "" {
			return d, fmt.Errorf("%w: command %d needs target and method", ErrBadProposal, i)
		}
	}
	for _, steps := range [][]domain.Step{d.Setup, d.Teardown} {
		for i, s := range steps {
			if s.From == "" || s.Target == "" || s.Method == "" {
				return d, fmt.Errorf("%w: step %d needs from, target and method", ErrBadProposal, i)
			}
		}
	}
	names := make(map[string]bool, len(d.Captures))
	for _, c := range d.Captures {
		if c.Name == "" || names[c.Name] {
			return d, fmt.Errorf("%w: capture names must be unique and non-empty", ErrBadProposal)
		}
		names[c.Name] = true
	}
	for _, c := range d.Checks {
		if !validOp(c.Op) {
			return d, fmt.Errorf("%w: check %q has op %q", ErrBadProposal, c.Name, c.Op)
		}
		if c.DeltaOf != "" && !names[c.DeltaOf] {
			return d, fmt.Errorf("%w: check %q refers to unknown capture %q", ErrBadProposal, c.Name, c.DeltaOf)
		}
	}
	for _, dep := range d.Deploys {
		if dep.Name == "" || dep.Artifact == "" {
			return d, fmt.Errorf("%w: deploys need name and artifact", ErrBadProposal)
		}
	}
	return d, nil
}

var _ domain.ProposalSource = (*Registry)(nil)
