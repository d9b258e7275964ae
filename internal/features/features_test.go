package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorsDefaultsToAll(t *testing.T) {
	gens, err := Generators(DefaultConfig())
	require.NoError(t, err)
	var names []string
	for _, g := range gens {
		names = append(names, g.Name())
	}
	assert.Equal(t, []string{"defaultparam", "getter"}, names)
}

func TestGeneratorsKeepsOrderAndDropsDuplicates(t *testing.T) {
	gens, err := Generators(DefaultConfig(), "getter", "defaultparam", "getter")
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, "getter", gens[0].Name())
	assert.Equal(t, "defaultparam", gens[1].Name())
}

func TestUnknownGenerator(t *testing.T) {
	_, err := Generators(DefaultConfig(), "nope")
	assert.ErrorIs(t, err, ErrUnknownGenerator)
}
