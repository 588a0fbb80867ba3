package domain

import "strings"

// Family is one of the seven extant bee families.
type Family string

const (
	FamilyApidae        Family = "Apidae"
	FamilyMegachilidae  Family = "Megachilidae"
	FamilyHalictidae    Family = "Halictidae"
	FamilyAndrenidae    Family = "Andrenidae"
	FamilyColletidae    Family = "Colletidae"
	FamilyMelittidae    Family = "Melittidae"
	FamilyStenotritidae Family = "Stenotritidae"
)

// families is the canonical collection order. Apidae first because it holds
// the bulk of assessed species (Bombus), which makes partial runs useful.
var families = []Family{
	FamilyApidae,
	FamilyMegachilidae,
	FamilyHalictidae,
	FamilyAndrenidae,
	FamilyColletidae,
	FamilyMelittidae,
	FamilyStenotritidae,
}

// Families returns the seven bee families in canonical collection order.
// The returned slice is a copy; callers may reorder it freely.
func Families() []Family {
	out := make([]Family, len(families))
	copy(out, families)
	return out
}

// ParseFamily canonicalizes a family name, accepting any letter case.
// Returns false for names outside the seven bee families.
func ParseFamily(s string) (Family, bool) {
	s = strings.TrimSpace(s)
	for _, f := range families {
		if strings.EqualFold(s, string(f)) {
			return f, true
		}
	}
	return "", false
}

// Upper returns the family name in all caps, the form the IUCN taxa
// endpoint expects.
func (f Family) Upper() string {
	return strings.ToUpper(string(f))
}
