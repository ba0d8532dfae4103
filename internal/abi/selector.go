package abi

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"polyc/internal/ns"
)

// Panic codes carried by Panic(uint256) reverts
const (
	PanicAssert      = 0x01
	PanicOverflow    = 0x11
	PanicDivByZero   = 0x12
	PanicEnumRange   = 0x21
	PanicEmptyPop    = 0x31
	PanicOutOfBounds = 0x32
)

const (
	ErrorSignature = "Error(string)"
	PanicSignature = "Panic(uint256)"
)

// Keccak256 hashes data with the legacy (pre-NIST) keccak padding
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		_, _ = h.Write(d)
	}
	return h.Sum(nil)
}

// Signature builds the canonical "name(type1,type2)" string
func Signature(name string, params []ns.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = ns.ABIName(p)
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// Selector is the leading width bytes of the keccak hash of sig. Targets
// disagree on the width, so it is always passed in.
func Selector(sig string, width int) []byte {
	sum := Keccak256([]byte(sig))
	if width <= 0 || width > len(sum) {
		width = 4
	}
	out := make([]byte, width)
	copy(out, sum[:width])
	return out
}

// Topic is the full 32 byte event topic of sig
func Topic(sig string) []byte {
	return Keccak256([]byte(sig))
}

// Hex renders a selector as 0x-prefixed lowercase hex
func Hex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
