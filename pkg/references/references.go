package references

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Prefixes for the externally visible reference families.
const (
	BookingPrefix = "MBK"
	PaymentPrefix = "PAY"
)

const (
	suffixBytes = 5
	maxAttempts = 10
)

// Exists reports whether a candidate reference is already taken.
type Exists func(ctx context.Context, reference string) (bool, error)

// New returns a single candidate reference: PREFIX-XXXXXXXXXX with an
// uppercase hex suffix from crypto/rand.
func New(prefix string) (string, error) {
	buf := make([]byte, suffixBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating reference suffix: %w", err)
	}
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// NewUnique generates candidates until exists reports a free one, giving up
// after a bounded number of attempts.
func NewUnique(ctx context.Context, prefix string, exists Exists) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := New(prefix)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking reference uniqueness: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts generating %s reference", maxAttempts, prefix)
}
