package redeemer

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"feigov/internal/crypto"
	"feigov/internal/domain"
	"feigov/internal/logger"
)

// Service deploys the redeemer.
type Service struct {
	chain domain.Chain
	log   *logger.Logger
}

func New(chain domain.Chain, log *logger.Logger) *Service {
	return &Service{chain: chain, log: log}
}

// Deploy sends the creation transaction signed by key and returns the new
// contract address.
func (s *Service) Deploy(ctx context.Context, key *ecdsa.PrivateKey, bytecode []byte, args Args) (common.Address, error) {
	packed, err := args.Pack()
	if err != nil {
		return common.Address{}, fmt.Errorf("pack constructor args: %w", err)
	}
	data := make([]byte, 0, len(bytecode)+len(packed))
	data = append(append(data, bytecode...), packed...)

	from := crypto.Address(key)
	s.log.Info("deploying merkle redeemer", "from", crypto.Fingerprint(from), "tokens", len(args.CTokens))
	rcpt, err := s.chain.SendSigned(ctx, key, nil, nil, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("deploy redeemer: %w", err)
	}
	if rcpt.ContractAddress == (common.Address{}) {
		return common.Address{}, fmt.Errorf("deploy redeemer: receipt has no contract address")
	}
	s.log.Info("merkle redeemer deployed", "address", rcpt.ContractAddress.Hex(), "block", rcpt.BlockNumber)
	return rcpt.ContractAddress, nil
}
