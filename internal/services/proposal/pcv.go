package proposal

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"feigov/internal/domain"
	"feigov/internal/protocol/calldata"
)

const (
	pcvOracleName = "collateralizationOracle"
	pcvStatsSig   = "pcvStats()"
	pcvStatsTypes = "(uint256,uint256,int256,bool)"

	green = "\x1b[32m"
	red   = "\x1b[31m"
	reset = "\x1b[0m"
)

// ReadPCV reads pcvStats() from the collateralization oracle.
func ReadPCV(ctx context.Context, chain domain.Chain, book domain.AddressBook) (domain.PCVStats, error) {
	oracle, err := book.Lookup(pcvOracleName)
	if err != nil {
		return domain.PCVStats{}, err
	}
	m, err := calldata.ParseMethod(pcvStatsSig)
	if err != nil {
		return domain.PCVStats{}, err
	}
	out, err := chain.Call(ctx, oracle, m.Selector())
	if err != nil {
		return domain.PCVStats{}, fmt.Errorf("pcvStats: %w", err)
	}
	vals, err := calldata.Unpack(pcvStatsTypes, out)
	if err != nil {
		return domain.PCVStats{}, fmt.Errorf("pcvStats: %w", err)
	}
	return domain.PCVStats{
		ProtocolControlledValue: vals[0].(*big.Int),
		UserCirculatingFei:      vals[1].(*big.Int),
		ProtocolEquity:          vals[2].(*big.Int),
		Valid:                   vals[3].(bool),
	}, nil
}

// PCVChange is the difference of two oracle readings.
type PCVChange struct {
	PCV *big.Int
	Fei *big.Int
}

// Diff returns after - before.
func Diff(before, after domain.PCVStats) PCVChange {
	return PCVChange{
		PCV: new(big.Int).Sub(after.ProtocolControlledValue, before.ProtocolControlledValue),
		Fei: new(big.Int).Sub(after.UserCirculatingFei, before.UserCirculatingFei),
	}
}

// String renders the change without colour.
func (c PCVChange) String() string {
	return "PCV " + FormatDelta(c.PCV, false) + ", FEI circulating " + FormatDelta(c.Fei, false)
}

// FormatDelta renders x with an explicit sign, scaling 18-decimal amounts
// and abbreviating thousands (k) and millions (M) to two decimals.
func FormatDelta(x *big.Int, color bool) string {
	sign := "+"
	if x.Sign() < 0 {
		sign = "-"
	}
	abs, _ := new(big.Float).SetInt(new(big.Int).Abs(x)).Float64()

	suffix := ""
	if abs >= 1e17 {
		abs /= 1e18
		suffix = " (e18)"
	}
	switch {
	case abs > 1e6:
		abs /= 1e6
		suffix = " M" + suffix
	case abs > 1e3:
		abs /= 1e3
		suffix = " k" + suffix
	}
	s := sign + strconv.FormatFloat(math.Round(abs*100)/100, 'f', -1, 64) + suffix
	if !color {
		return s
	}
	if sign == "+" {
		return green + s + reset
	}
	return red + s + reset
}
