package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Intn returns a uniform random int in [0, n).
func Intn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}

// Pick returns a random element of items.
func Pick[T any](items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, fmt.Errorf("pick from empty slice")
	}
	i, err := Intn(len(items))
	if err != nil {
		return zero, err
	}
	return items[i], nil
}
