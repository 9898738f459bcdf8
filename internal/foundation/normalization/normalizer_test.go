package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

const (
	colorRed   color = "red"
	colorGreen color = "green"
	colorBlue  color = "blue"
)

func newColors() *Normalizer[color] {
	return NewNormalizer(map[string]color{
		"red":   colorRed,
		"Green": colorGreen,
		"blue":  colorBlue,
	}, colorRed)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newColors()

	tests := []struct {
		name     string
		input    string
		expected color
	}{
		{"exact match", "blue", colorBlue},
		{"case insensitive", "GREEN", colorGreen},
		{"with spaces", "  blue  ", colorBlue},
		{"unknown falls back", "purple", colorRed},
		{"empty falls back", "", colorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_Parse(t *testing.T) {
	n := newColors()

	v, err := n.Parse(" Green ")
	require.NoError(t, err)
	assert.Equal(t, colorGreen, v)

	v, err = n.Parse("")
	require.NoError(t, err)
	assert.Equal(t, colorRed, v)

	_, err = n.Parse("purple")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[blue green red]")
}

func TestNormalizer_ValidKeysIsCopy(t *testing.T) {
	n := newColors()
	keys := n.ValidKeys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"blue", "green", "red"}, n.ValidKeys())
}
