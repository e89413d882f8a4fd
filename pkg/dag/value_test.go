// ABOUTME: Tests for the TypedValue union
// ABOUTME: Checks conservative extraction and the JSON wire form

package dag

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrongVariantIsAbsent(t *testing.T) {
	v := Text("hello")

	s, ok := v.AsText()
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = v.AsInteger()
	assert.False(t, ok)
	_, ok = v.AsDouble()
	assert.False(t, ok)
	_, ok = v.AsDateTime()
	assert.False(t, ok)

	i := Short(7)
	_, ok = i.AsInteger()
	assert.False(t, ok, "short is not an integer")
	n, ok := i.AsShort()
	assert.True(t, ok)
	assert.Equal(t, int16(7), n)

	var zero Value
	_, ok = zero.AsText()
	assert.False(t, ok)
}

func TestValueJSON(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	values := []Value{
		Text("x"),
		Integer(-5),
		Short(3),
		Double(1.25),
		Boolean(true),
		DateTime(when),
		Geometry(Rectangle{UpperLeft: Coordinate{X: 1, Y: 4}, LowerRight: Coordinate{X: 3, Y: 2}}),
	}

	for _, v := range values {
		t.Run(string(v.Type()), func(t *testing.T) {
			data, err := json.Marshal(v)
			require.NoError(t, err)

			var got Value
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, v, got)
		})
	}

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`{"type":"blob","value":1}`), &bad))
}

func TestDateTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	v := DateTime(time.Date(2024, 1, 1, 1, 0, 0, 0, loc))
	got, ok := v.AsDateTime()
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Hour())
}
