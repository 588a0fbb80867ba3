package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFamily(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Family
		ok       bool
	}{
		{"canonical case", "Apidae", FamilyApidae, true},
		{"all lowercase", "megachilidae", FamilyMegachilidae, true},
		{"all uppercase", "HALICTIDAE", FamilyHalictidae, true},
		{"surrounding spaces", "  Andrenidae ", FamilyAndrenidae, true},
		{"not a bee family", "Vespidae", "", false},
		{"superfamily rejected", "Apoidea", "", false},
		{"empty string", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := ParseFamily(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestFamilies(t *testing.T) {
	t.Run("seven families in collection order", func(t *testing.T) {
		fams := Families()
		assert.Equal(t, []Family{
			FamilyApidae,
			FamilyMegachilidae,
			FamilyHalictidae,
			FamilyAndrenidae,
			FamilyColletidae,
			FamilyMelittidae,
			FamilyStenotritidae,
		}, fams)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		fams := Families()
		fams[0] = "Vespidae"
		assert.Equal(t, FamilyApidae, Families()[0])
	})
}

func TestFamilyUpper(t *testing.T) {
	assert.Equal(t, "STENOTRITIDAE", FamilyStenotritidae.Upper())
}
