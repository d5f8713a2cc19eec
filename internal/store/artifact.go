package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNoBytecode is returned for artifacts without creation code.
var ErrNoBytecode = errors.New("artifact has no bytecode")

// LoadArtifact returns the creation bytecode of a compiled contract. Both
// hardhat ("bytecode": "0x...") and foundry ("bytecode": {"object": "0x..."})
// artifacts are accepted.
func LoadArtifact(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := ParseArtifact(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}

// ParseArtifact extracts creation bytecode from artifact JSON.
func ParseArtifact(b []byte) ([]byte, error) {
	var art struct {
		Bytecode json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(b, &art); err != nil {
		return nil, err
	}
	if len(art.Bytecode) == 0 {
		return nil, ErrNoBytecode
	}

	var hexCode string
	if err := json.Unmarshal(art.Bytecode, &hexCode); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(art.Bytecode, &obj); err != nil {
			return nil, fmt.Errorf("decode bytecode: %w", err)
		}
		hexCode = obj.Object
	}
	if !strings.HasPrefix(hexCode, "0x") {
		hexCode = "0x" + hexCode
	}
	code, err := hexutil.Decode(hexCode)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode: %w", err)
	}
	if len(code) == 0 {
		return nil, ErrNoBytecode
	}
	return code, nil
}
