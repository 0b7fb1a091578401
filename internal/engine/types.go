package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrUnknownMode = errors.New("unknown rng mode")

type Seeds struct {
	Server string `json:"server"` // ASCII; do NOT hex-decode
	Client string `json:"client"`
}

// Mode selects how a trial's random stream is derived from the seeds.
type Mode string

const (
	// ModeProvablyFair streams HMAC-SHA256(server, "client:nonce:round").
	ModeProvablyFair Mode = "provably_fair"
	// ModePCG seeds a math/rand/v2 PCG with a seed digest and the nonce.
	ModePCG Mode = "pcg"
)

// Modes lists the supported stream modes.
func Modes() []Mode {
	return []Mode{ModeProvablyFair, ModePCG}
}

// HashSeed returns the hex SHA-256 of a server seed, the only form in which
// server seeds are stored or logged.
func HashSeed(seed string) string {
	if seed == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(hash[:])
}
