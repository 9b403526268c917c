package random

import (
	"github.com/google/uuid"
	"github.com/jmcvetta/randutil"
	"github.com/rs/zerolog/log"
	"old-maid-server/internal/entities"
)

const (
	ShortSecretLength = 6
	LongSecretLength  = 43
)

// shortSecretCharset leaves out characters that are easy to misread.
const shortSecretCharset = "abcdefghjkmnpqrstuvwxyz23456789"

// Source draws every value from crypto/rand.
type Source struct{}

var _ entities.Random = Source{}

func (Source) NewID() string {
	return uuid.NewString()
}

func (Source) NewShortSecret() entities.ShortSecret {
	return entities.ShortSecret(mustString(ShortSecretLength, shortSecretCharset))
}

func (Source) NewLongSecret() entities.LongSecret {
	return entities.LongSecret(mustString(LongSecretLength, randutil.Alphanumeric))
}

// Shuffle is a Fisher-Yates shuffle.
func (Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, must(randutil.IntRange(0, i+1)))
	}
}

func mustString(n int, charset string) string {
	return must(randutil.String(n, charset))
}

// must panics when crypto/rand fails.
func must[T any](v T, err error) T {
	if err != nil {
		log.Error().Err(err).Msg("entropy source failed")
		panic(err)
	}
	return v
}
