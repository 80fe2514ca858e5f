package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// Float returns the provably-fair float of one nonce: the first four bytes
// of HMAC-SHA256(serverSeed, "clientSeed:nonce:0") read as a base-256
// fraction in [0, 1). Anyone holding the revealed server seed can recompute
// every draw.
func Float(serverSeed, clientSeed string, nonce uint64) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(mac, "%s:%d:0", clientSeed, nonce)
	return fraction(mac.Sum(nil)[:4])
}

func fraction(b []byte) float64 {
	f, scale := 0.0, 1.0
	for _, x := range b {
		scale /= 256
		f += float64(x) * scale
	}
	return f
}
