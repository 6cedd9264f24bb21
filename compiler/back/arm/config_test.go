package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseVariant(t *testing.T) {
	for s, v := range map[string]Variant{
		"v4":      V4,
		"armv5t":  V5T,
		"ARMv6T2": V6T2,
		"v7":      V7,
	} {
		got, err := ParseVariant(s)
		require.NoError(t, err, s)
		assert.Equal(t, v, got, s)
	}

	_, err := ParseVariant("v8")
	assert.ErrorIs(t, err, ErrUnknownTarget)

	_, err = ParseFPU("vfp")
	assert.ErrorIs(t, err, ErrUnknownTarget)

	assert.Equal(t, "v6t2", V6T2.String())
	assert.Equal(t, "fpa", FPUFPA.String())
}

func TestConfigYAML(t *testing.T) {
	var c Config

	err := yaml.Unmarshal([]byte("variant: armv5\nfpu: soft\n"), &c)
	require.NoError(t, err)
	assert.Equal(t, Config{Variant: V5, FPU: FPUSoft}, c)

	err = yaml.Unmarshal([]byte("variant: z80\n"), &c)
	assert.ErrorIs(t, err, ErrUnknownTarget)
}
