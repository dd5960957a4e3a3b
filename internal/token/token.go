// SPDX-License-Identifier: MIT

// Package token derives the access token the upstream aggregator expects as a
// query parameter. This is obfuscation, not cryptography: the salt table is
// public and fixed, and every arithmetic step wraps at 32 bits. Bit-exact
// reproduction is the whole contract — a wrong token is indistinguishable
// from "no sources available" upstream.
package token

import (
	"encoding/base64"
	"fmt"
	"math/bits"
	"strconv"
)

const (
	// MissingIdentifier is returned when no identifier was supplied.
	MissingIdentifier = "rive"
	// DerivationFailed is returned when the derivation cannot proceed.
	DerivationFailed = "topSecret"
)

// Derive returns the opaque token for the given content identifier.
// It is pure and deterministic.
func Derive(id string) string {
	if id == "" {
		return MissingIdentifier
	}
	tok, err := derive(id)
	if err != nil {
		return DerivationFailed
	}
	return tok
}

func derive(id string) (string, error) {
	v, err := identifierValue(id)
	if err != nil {
		return "", err
	}
	salt := saltTable[v%55]
	n := int((v / 2) % uint64(len(id)))
	combined := id[:n] + salt + id[n:]
	h2 := mix32(combined)
	h1 := mix32b(h2)
	return base64.StdEncoding.EncodeToString([]byte(h1)), nil
}

// identifierValue maps an identifier to the numeric value shared by the salt
// index and the insertion offset: the parsed integer for numeric identifiers,
// the sum of byte codes otherwise.
func identifierValue(id string) (uint64, error) {
	if v, err := strconv.ParseUint(id, 10, 64); err == nil {
		return v, nil
	}
	var sum uint64
	for i := 0; i < len(id); i++ {
		sum += uint64(id[i])
	}
	if sum == 0 {
		return 0, fmt.Errorf("token: identifier %q has zero weight", id)
	}
	return sum, nil
}

// mix32 folds every byte into a 32-bit accumulator with multiply-add mixing
// and position-dependent rotations, then avalanches over three rounds.
func mix32(s string) string {
	var acc uint32
	for i := 0; i < len(s); i++ {
		c := bits.RotateLeft32(uint32(s[i]), i%13)
		acc = acc*0x01000193 + c
		acc = bits.RotateLeft32(acc, (i%7)+1)
	}
	// 3-round finisher: xor-shift plus two 16x16 half-multiplications per the
	// upstream's emulated 32-bit imul.
	acc ^= acc >> 16
	acc = imul32(acc, 0x85ebca6b)
	acc ^= acc >> 13
	acc = imul32(acc, 0xc2b2ae35)
	acc ^= acc >> 16
	return fmt.Sprintf("%08x", acc)
}

// mix32b runs over the hex string produced by mix32, not its numeric value.
func mix32b(s string) string {
	acc := uint32(0xdeadbeef) ^ uint32(len(s))
	for i := 0; i < len(s); i++ {
		acc ^= bits.RotateLeft32(uint32(s[i]), (i*5)%29)
		acc = imul32(acc, 0x5bd1e995)
	}
	// 4-round finisher with three distinct odd constants.
	acc ^= acc >> 15
	acc = imul32(acc, 0x2d51ed4f)
	acc ^= acc >> 13
	acc = imul32(acc, 0x735a2d97)
	acc ^= acc >> 12
	acc = imul32(acc, 0xcaf649a9)
	acc ^= acc >> 16
	return fmt.Sprintf("%08x", acc)
}

// imul32 mirrors the upstream's 16x16 half-multiply emulation of a 32-bit
// multiply. Equivalent to a wrapping uint32 multiply; kept in the emulated
// form so the derivation reads like the reference it must match.
func imul32(a, b uint32) uint32 {
	lo := (a & 0xffff) * b
	hi := ((a >> 16) * b) & 0xffff
	return lo + hi<<16
}
