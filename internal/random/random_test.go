package random

import (
	"errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	var s Source
	id := s.NewID()

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, s.NewID())
}

func TestSecrets(t *testing.T) {
	var s Source

	short := string(s.NewShortSecret())
	assert.Len(t, short, ShortSecretLength)
	for _, r := range short {
		assert.True(t, strings.ContainsRune(shortSecretCharset, r), string(r))
	}

	long := s.NewLongSecret()
	assert.Len(t, string(long), LongSecretLength)
	assert.NotEqual(t, long, s.NewLongSecret())
}

func TestShuffleIsPermutation(t *testing.T) {
	var s Source
	values := make([]int, 54)
	for i := range values {
		values[i] = i
	}

	s.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	seen := make(map[int]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	assert.Len(t, seen, 54)
}

func TestEntropyFailurePanics(t *testing.T) {
	assert.Equal(t, 3, must(3, nil))
	assert.Panics(t, func() {
		must("", errors.New("no entropy"))
	})
}
