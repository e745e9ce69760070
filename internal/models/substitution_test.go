package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(SubstitutionStatusUnassigned, SubstitutionStatusPending))
	assert.True(t, CanTransition(SubstitutionStatusPending, SubstitutionStatusConfirmed))
	assert.True(t, CanTransition(SubstitutionStatusConfirmed, SubstitutionStatusCompleted))
	assert.True(t, CanTransition(SubstitutionStatusConfirmed, SubstitutionStatusSubstituted))

	assert.False(t, CanTransition(SubstitutionStatusPending, SubstitutionStatusCompleted))
	assert.False(t, CanTransition(SubstitutionStatusCompleted, SubstitutionStatusCancelled))
	assert.False(t, CanTransition(SubstitutionStatusCancelled, SubstitutionStatusPending))
	assert.False(t, CanTransition(SubstitutionStatusUnassigned, SubstitutionStatusConfirmed))
}

func TestSourcesFor(t *testing.T) {
	assert.Equal(t, []SubstitutionStatus{SubstitutionStatusPending, SubstitutionStatusConfirmed}, SourcesFor(SubstitutionStatusCancelled))
	assert.Equal(t, []SubstitutionStatus{SubstitutionStatusConfirmed}, SourcesFor(SubstitutionStatusCompleted))
	assert.Empty(t, SourcesFor(SubstitutionStatusUnassigned))
}

func TestLineage(t *testing.T) {
	next := "sub-2"
	superseded := &SubstitutionRecord{Status: SubstitutionStatusSubstituted, SupersededByID: &next}
	assert.Equal(t, Lineage{Kind: LineageSuperseded, SupersededBy: "sub-2"}, superseded.Lineage())

	assert.Equal(t, LineageActive, (&SubstitutionRecord{Status: SubstitutionStatusPending}).Lineage().Kind)
	assert.Equal(t, LineageClosed, (&SubstitutionRecord{Status: SubstitutionStatusCancelled}).Lineage().Kind)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, SubstitutionStatusCompleted.IsActive())
	assert.False(t, SubstitutionStatusSubstituted.IsActive())
	assert.True(t, SubstitutionStatusConfirmed.HoldsWorkload())
	assert.False(t, SubstitutionStatusUnassigned.HoldsWorkload())
}
