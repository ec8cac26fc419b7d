package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lsmpricer/config"
)

func TestGeneratorsProduceIncreasingIDs(t *testing.T) {
	for _, typ := range []string{"snowflake", "sonyflake"} {
		t.Run(typ, func(t *testing.T) {
			g, err := NewGenerator(config.IDGenConfig{Type: typ, MachineID: 7})
			require.NoError(t, err)

			a, b := g.Generate(), g.Generate()
			assert.Positive(t, a)
			assert.Greater(t, b, a)
		})
	}
}

func TestNewGeneratorRejectsUnknownType(t *testing.T) {
	_, err := NewGenerator(config.IDGenConfig{Type: "uuid"})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = NewSonyflakeGenerator(config.IDGenConfig{MachineID: 70000})
	assert.ErrorIs(t, err, ErrInvalidMachineID)
}

func TestGenIDString(t *testing.T) {
	assert.NotEmpty(t, GenIDString())
	assert.NotEqual(t, GenIDString(), GenIDString())
}
