package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
)

// RNG is the random source handed to every trial. Shuffles and tie-break
// coin flips are its only consumers.
type RNG interface {
	// IntN returns a non-negative random int in [0, n).
	IntN(n int) int
}

// ByteGenerator generates bytes using HMAC-SHA256 keyed by the server seed
// over "clientSeed:nonce:round", streaming 32 bytes per round.
type ByteGenerator struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a new byte generator with the given parameters
func NewByteGenerator(serverSeed, clientSeed string, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed:   serverSeed,
		clientSeed:   clientSeed,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}

	bg.generateRound()

	return bg
}

// Next returns the next byte from the generator
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat generates the next float in [0, 1) using exactly 4 bytes
func (bg *ByteGenerator) NextFloat() float64 {
	b0 := bg.Next()
	b1 := bg.Next()
	b2 := bg.Next()
	b3 := bg.Next()

	return bytesToFloat([4]byte{b0, b1, b2, b3})
}

// IntN maps the next float onto [0, n) with floor(f * n).
func (bg *ByteGenerator) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Errorf("engine: IntN called with n=%d", n))
	}
	i := int(math.Floor(bg.NextFloat() * float64(n)))
	if i >= n {
		return n - 1
	}
	return i
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	message := fmt.Sprintf("%s:%d:%d", bg.clientSeed, bg.nonce, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

// bytesToFloat converts exactly 4 bytes to float64
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// NewStream returns the RNG for one trial. Every (mode, seeds, nonce)
// triple yields an independent, reproducible stream.
func NewStream(mode Mode, seeds Seeds, nonce uint64) (RNG, error) {
	switch mode {
	case ModeProvablyFair, "":
		return NewByteGenerator(seeds.Server, seeds.Client, nonce, 0), nil
	case ModePCG:
		return rand.New(rand.NewPCG(seedWord(seeds), nonce)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// seedWord folds both seeds into the first PCG state word.
func seedWord(seeds Seeds) uint64 {
	sum := sha256.Sum256([]byte(seeds.Server + ":" + seeds.Client))
	return binary.BigEndian.Uint64(sum[:8])
}
