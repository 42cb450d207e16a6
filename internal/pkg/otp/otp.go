// Package otp generates the numeric one-time passwords sent to phone numbers.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Min and Max bound every generated code, so codes are always six digits.
	Min = 100000
	Max = 999999
)

var span = big.NewInt(Max - Min + 1)

// Generate returns a six-digit code drawn uniformly from [Min, Max] using crypto/rand.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+Min), nil
}
