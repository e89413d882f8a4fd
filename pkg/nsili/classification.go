// ABOUTME: Security classification ranking and comparison
// ABOUTME: Names match the STANAG 4559 markings, matched case-insensitively

package nsili

import "strings"

// Classification is a security level marking
type Classification int

const (
	NoClassification Classification = iota
	Unclassified
	Restricted
	Confidential
	Secret
	CosmicTopSecret
)

var classificationNames = map[Classification]string{
	NoClassification: "NO CLASSIFICATION",
	Unclassified:     "UNCLASSIFIED",
	Restricted:       "RESTRICTED",
	Confidential:     "CONFIDENTIAL",
	Secret:           "SECRET",
	CosmicTopSecret:  "COSMIC TOP SECRET",
}

// String returns the protocol marking
func (c Classification) String() string {
	if s, ok := classificationNames[c]; ok {
		return s
	}
	return classificationNames[NoClassification]
}

// Rank is the sensitivity rank: -1 unmarked, 0 unclassified up to 4 top secret
func (c Classification) Rank() int {
	return int(c) - 1
}

// MarshalText encodes the protocol marking
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a marking leniently
func (c *Classification) UnmarshalText(b []byte) error {
	*c = ParseClassification(string(b))
	return nil
}

// ParseClassification maps a marking to a Classification. Case, separators and the
// short "TOP SECRET" form are tolerated; anything else is NoClassification.
func ParseClassification(s string) Classification {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")

	if norm == "TOP SECRET" {
		return CosmicTopSecret
	}
	for c, name := range classificationNames {
		if name == norm {
			return c
		}
	}
	return NoClassification
}

// CompareClassification orders markings by ascending rank; unmarked sorts last.
// It returns a negative number when a sorts before b.
func CompareClassification(a, b Classification) int {
	switch {
	case a == b:
		return 0
	case b == NoClassification:
		return -1
	case a == NoClassification:
		return 1
	default:
		return a.Rank() - b.Rank()
	}
}

// MergeClassification keeps whichever marking sorts first
func MergeClassification(a, b Classification) Classification {
	if CompareClassification(a, b) <= 0 {
		return a
	}
	return b
}
