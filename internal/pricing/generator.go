package pricing

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	generatorLetters  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	generatorDigits   = "0123456789"
	generatorAttempts = 20
)

// ExistsFunc reports whether a candidate username is already taken.
type ExistsFunc func(ctx context.Context, username string) (bool, error)

// Generator produces candidate usernames of three letters followed by three
// digits, retrying until one is unused.
type Generator struct {
	exists ExistsFunc
}

func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{exists: exists}
}

func (g *Generator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < generatorAttempts; i++ {
		candidate, err := randomUsername()
		if err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free username after %d attempts", generatorAttempts)
}

func randomUsername() (string, error) {
	buf := make([]byte, 6)
	for i := 0; i < 3; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(generatorLetters))))
		if err != nil {
			return "", err
		}
		buf[i] = generatorLetters[idx.Int64()]
	}
	for i := 3; i < 6; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(generatorDigits))))
		if err != nil {
			return "", err
		}
		buf[i] = generatorDigits[idx.Int64()]
	}
	return string(buf), nil
}
