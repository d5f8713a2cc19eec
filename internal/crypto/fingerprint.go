package crypto

import "github.com/ethereum/go-ethereum/common"

// Fingerprint returns a short form of addr for display/logging, e.g.
// "0xB8f4…2775".
func Fingerprint(addr common.Address) string {
	h := addr.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}
