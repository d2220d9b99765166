package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
)

func TestSnapshot_IsolatedFromLaterEdits(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTestTable(t, activeEntry("seed-1", domain.KindColor, "red", 1))

	snap := tbl.Snapshot()
	require.Equal(t, uint64(1), snap.Version())

	_, err := tbl.Insert(ctx, InsertRequest{Kind: domain.KindColor, Canonical: "blue", ID: 2})
	require.NoError(t, err)
	_, err = tbl.Supersede(ctx, SupersedeRequest{EntryID: "seed-1", Canonical: "scarlet"})
	require.NoError(t, err)

	_, match := snap.Lookup(domain.NormalizedName{Kind: domain.KindColor, Canonical: "blue"})
	assert.Equal(t, MatchMiss, match)

	e, match := snap.Lookup(domain.NormalizedName{Kind: domain.KindColor, Canonical: "red"})
	assert.Equal(t, MatchHit, match)
	assert.True(t, e.Active(), "snapshot keeps the entry as it was")

	assert.Equal(t, uint64(3), tbl.Version())
	assert.Equal(t, uint64(1), snap.Version())
}

func TestSnapshot_AmbiguousLookup(t *testing.T) {
	tbl, _ := newTestTable(t,
		activeEntry("seed-1", domain.KindSize, "m", 2),
		activeEntry("seed-2", domain.KindSize, "m", 3),
	)

	_, match := tbl.Snapshot().Lookup(domain.NormalizedName{Kind: domain.KindSize, Canonical: "m"})
	assert.Equal(t, MatchAmbiguous, match)
	assert.Equal(t, "ambiguous", match.String())
}

func TestSnapshot_KindsAreSeparate(t *testing.T) {
	tbl, _ := newTestTable(t, activeEntry("seed-1", domain.KindSize, "m", 2))
	snap := tbl.Snapshot()

	_, match := snap.Lookup(domain.NormalizedName{Kind: domain.KindColor, Canonical: "m"})
	assert.Equal(t, MatchMiss, match)
	assert.Equal(t, 1, snap.Len())
}
