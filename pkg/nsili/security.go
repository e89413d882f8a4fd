// ABOUTME: Security descriptor accumulated from security entities of a DAG
// ABOUTME: Policy merges by union, releasability by intersection

package nsili

import (
	"slices"
	"strings"
)

// SecurityDescriptor is the classification triple carried by a product.
// A nil Releasability means no fragment contributed one; an empty non-nil slice means
// the contributing fragments had nothing in common.
type SecurityDescriptor struct {
	Classification Classification `json:"classification"`
	Policy         []string       `json:"policy,omitempty"`
	Releasability  []string       `json:"releasability"`
}

// DefaultSecurity is applied to products that carry no marking
func DefaultSecurity() SecurityDescriptor {
	return SecurityDescriptor{
		Classification: NoClassification,
		Policy:         []string{NATO},
		Releasability:  []string{NATO},
	}
}

// WithDefaults fills the policy and releasability the descriptor lacks from DefaultSecurity
func (s SecurityDescriptor) WithDefaults() SecurityDescriptor {
	d := DefaultSecurity()
	if len(s.Policy) == 0 {
		s.Policy = d.Policy
	}
	if len(s.Releasability) == 0 {
		s.Releasability = d.Releasability
	}
	return s
}

// IsZero reports whether nothing has been recorded
func (s SecurityDescriptor) IsZero() bool {
	return s.Classification == NoClassification && len(s.Policy) == 0 && s.Releasability == nil
}

// Merge combines two descriptors. The operation is commutative and associative.
func (s SecurityDescriptor) Merge(o SecurityDescriptor) SecurityDescriptor {
	return SecurityDescriptor{
		Classification: MergeClassification(s.Classification, o.Classification),
		Policy:         union(s.Policy, o.Policy),
		Releasability:  intersect(s.Releasability, o.Releasability),
	}
}

// SplitMarkings parses a comma separated marking list
func SplitMarkings(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return normalize(out)
}

// JoinMarkings renders a marking list in the form SplitMarkings reads
func JoinMarkings(values []string) string {
	return strings.Join(values, ",")
}

func normalize(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func union(a, b []string) []string {
	if a == nil && b == nil {
		return nil
	}
	return normalize(append(slices.Clone(a), b...))
}

func intersect(a, b []string) []string {
	if a == nil {
		return normalize(b)
	}
	if b == nil {
		return normalize(a)
	}
	out := []string{}
	for _, v := range normalize(a) {
		if slices.Contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}
