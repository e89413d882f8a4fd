// ABOUTME: Tests for the default attribute schema
// ABOUTME: Verifies view membership and eligibility lookups

package nsili

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemaViews(t *testing.T) {
	s := DefaultSchema()
	assert.Contains(t, s.Views(), AllView)
	assert.Contains(t, s.Views(), ImageryView)
	assert.True(t, s.HasView(AssociationView))
	assert.False(t, s.HasView("NSIL_BOGUS_VIEW"))

	assert.True(t, s.IsQueryable(ImageryView, "NSIL_IMAGERY.cloudCoverPercentage"))
	assert.False(t, s.IsQueryable(MessageView, "NSIL_IMAGERY.cloudCoverPercentage"))
	assert.True(t, s.IsQueryable(AllView, "NSIL_CARD.dateTimeModified"))

	a, ok := s.Lookup(AllView, "NSIL_COMMON.type")
	require.True(t, ok)
	assert.True(t, a.IsText())
	assert.Equal(t, List, a.Domain)

	assert.Nil(t, s.Queryable("NSIL_BOGUS_VIEW"))
	assert.NotEmpty(t, s.Queryable(AllView))
	assert.Contains(t, s.Required(AllView), "NSIL_CARD.identifier")
}

func TestPartEntityMapping(t *testing.T) {
	e, ok := PartEntityFor(TypeImagery)
	require.True(t, ok)
	assert.Equal(t, Imagery, e)

	typ, ok := ProductTypeFor(TDL)
	require.True(t, ok)
	assert.Equal(t, TypeTDL, typ)

	_, ok = PartEntityFor(TypeDocument)
	assert.False(t, ok)
}
