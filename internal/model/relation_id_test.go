package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationInstanceID_RoundTrip(t *testing.T) {
	out := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	in := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	id := NewRelationInstanceID(out, NewRelationInstanceType(NewRelationType("core", "connector"), "value--value"), in)

	assert.Equal(t, "00000000-0000-0000-0000-000000000001--core::connector__value--value--00000000-0000-0000-0000-000000000002", id.String())

	unique := NewRelationInstanceID(out, NewUniqueRelationInstanceType(NewRelationType("core", "connector")), in)
	parsed, err := ParseRelationInstanceID(unique.String())
	require.NoError(t, err)
	assert.Equal(t, unique, parsed)
}

func TestRelationInstanceID_Touches(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	id := NewRelationInstanceID(a, NewUniqueRelationInstanceType(NewRelationType("core", "connector")), b)
	assert.True(t, id.Touches(a))
	assert.True(t, id.Touches(b))
	assert.False(t, id.Touches(c))
}

func TestCompareRelationIDs(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000009")
	conn := NewUniqueRelationInstanceType(NewRelationType("core", "connector"))
	link := NewUniqueRelationInstanceType(NewRelationType("core", "link"))

	// type dominates ids
	assert.Negative(t, CompareRelationIDs(
		NewRelationInstanceID(high, conn, high),
		NewRelationInstanceID(low, link, low),
	))
	// then outbound
	assert.Negative(t, CompareRelationIDs(
		NewRelationInstanceID(low, conn, high),
		NewRelationInstanceID(high, conn, low),
	))
	// then inbound
	assert.Positive(t, CompareRelationIDs(
		NewRelationInstanceID(low, conn, high),
		NewRelationInstanceID(low, conn, low),
	))
	assert.Zero(t, CompareRelationIDs(
		NewRelationInstanceID(low, conn, high),
		NewRelationInstanceID(low, conn, high),
	))
}

func TestParseRelationInstanceID_DiscriminatorWithSeparator(t *testing.T) {
	id := NewRelationInstanceID(uuid.New(), NewRelationInstanceType(NewRelationType("core", "connector"), "value--value"), uuid.New())
	parsed, err := ParseRelationInstanceID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseRelationInstanceID("nope")
	assert.Error(t, err)
}
