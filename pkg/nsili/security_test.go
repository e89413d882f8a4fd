// ABOUTME: Tests for classification ordering and security merging
// ABOUTME: Merge must be commutative, associative and keep the lowest ranked marking

package nsili

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allClassifications = []Classification{
	NoClassification, Unclassified, Restricted, Confidential, Secret, CosmicTopSecret,
}

func TestParseClassification(t *testing.T) {
	tests := map[string]Classification{
		"SECRET":            Secret,
		"secret":            Secret,
		"  Confidential ":   Confidential,
		"cosmic top secret": CosmicTopSecret,
		"TOP_SECRET":        CosmicTopSecret,
		"top-secret":        CosmicTopSecret,
		"unclassified":      Unclassified,
		"Restricted":        Restricted,
		"NO CLASSIFICATION": NoClassification,
		"":                  NoClassification,
		"bogus":             NoClassification,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseClassification(in), in)
	}
	assert.Equal(t, "COSMIC TOP SECRET", CosmicTopSecret.String())
}

func TestMergeClassificationProperties(t *testing.T) {
	for _, a := range allClassifications {
		for _, b := range allClassifications {
			ab := MergeClassification(a, b)
			assert.Equal(t, ab, MergeClassification(b, a), "commutative %s/%s", a, b)
			if a != NoClassification && b != NoClassification {
				assert.LessOrEqual(t, ab.Rank(), min(a.Rank(), b.Rank()), "rank %s/%s", a, b)
			}
			assert.Contains(t, []Classification{a, b}, ab)

			for _, c := range allClassifications {
				left := MergeClassification(MergeClassification(a, b), c)
				right := MergeClassification(a, MergeClassification(b, c))
				assert.Equal(t, left, right, "associative %s/%s/%s", a, b, c)
			}
		}
	}
}

func TestMergeClassificationPicksLowerRank(t *testing.T) {
	assert.Equal(t, Restricted, MergeClassification(Secret, Restricted))
	assert.Equal(t, Confidential, MergeClassification(Secret, Confidential))
	assert.Equal(t, Unclassified, MergeClassification(Unclassified, Restricted))
	assert.Equal(t, Unclassified, MergeClassification(NoClassification, Unclassified))
	assert.Equal(t, CosmicTopSecret, MergeClassification(CosmicTopSecret, NoClassification))
	assert.Equal(t, NoClassification, MergeClassification(NoClassification, NoClassification))
}

func TestSecurityMergePolicyUnion(t *testing.T) {
	a := SecurityDescriptor{Classification: Secret, Policy: []string{"NATO"}}
	b := SecurityDescriptor{Classification: Restricted, Policy: []string{"EU", "NATO"}}

	got := a.Merge(b)
	assert.Equal(t, Restricted, got.Classification)
	assert.Equal(t, []string{"EU", "NATO"}, got.Policy)
	assert.Nil(t, got.Releasability)
}

// Releasability is a true intersection across fragments: a value survives only when every
// contributing fragment lists it, including values the first fragment does not repeat.
func TestSecurityMergeReleasabilityIntersection(t *testing.T) {
	a := SecurityDescriptor{Releasability: []string{"NATO", "EU", "USA"}}
	b := SecurityDescriptor{Releasability: []string{"USA", "NATO"}}
	c := SecurityDescriptor{Releasability: []string{"NATO", "GBR"}}

	assert.Equal(t, []string{"NATO", "USA"}, a.Merge(b).Releasability)
	assert.Equal(t, []string{"NATO"}, a.Merge(b).Merge(c).Releasability)
	assert.Equal(t, a.Merge(b).Merge(c), c.Merge(a.Merge(b)))

	disjoint := SecurityDescriptor{Releasability: []string{"FRA"}}
	got := b.Merge(disjoint)
	assert.NotNil(t, got.Releasability)
	assert.Empty(t, got.Releasability)

	// fragments without a releasability do not narrow the result
	none := SecurityDescriptor{Classification: Confidential}
	assert.Equal(t, []string{"NATO", "USA"}, b.Merge(none).Releasability)
}

func TestSplitJoinMarkings(t *testing.T) {
	assert.Equal(t, []string{"EU", "NATO"}, SplitMarkings(" NATO, EU,,NATO "))
	assert.Nil(t, SplitMarkings(""))
	assert.Equal(t, "EU,NATO", JoinMarkings([]string{"EU", "NATO"}))
}

func TestDefaultSecurity(t *testing.T) {
	d := DefaultSecurity()
	assert.Equal(t, "NO CLASSIFICATION", d.Classification.String())
	assert.Equal(t, []string{NATO}, d.Policy)
	assert.Equal(t, []string{NATO}, d.Releasability)
	assert.True(t, SecurityDescriptor{Classification: NoClassification}.IsZero())
}

func TestWithDefaultsKeepsCarriedMarkings(t *testing.T) {
	carried := SecurityDescriptor{Policy: []string{"EU"}, Releasability: []string{"EU"}}
	got := carried.WithDefaults()
	assert.Equal(t, NoClassification, got.Classification)
	assert.Equal(t, []string{"EU"}, got.Policy)
	assert.Equal(t, []string{"EU"}, got.Releasability)

	partial := SecurityDescriptor{Classification: Secret, Releasability: []string{"USA"}}.WithDefaults()
	assert.Equal(t, Secret, partial.Classification)
	assert.Equal(t, []string{NATO}, partial.Policy)
	assert.Equal(t, []string{"USA"}, partial.Releasability)

	assert.Equal(t, DefaultSecurity(), SecurityDescriptor{}.WithDefaults())
}
