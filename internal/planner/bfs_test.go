package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eggybricks/trainctl/internal/track"
)

func TestFindPath_LAToNYC_ReturnsAReachingPath(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	path, ok := FindPath(layout, "LA", "NYC", Forward)
	require.True(t, ok)
	require.NotEmpty(t, path)
	assert.Equal(t, track.City("NYC"), path[len(path)-1].Segment.Dst)
}

func TestFindPath_SameCityReturnsEmptyPath(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	path, ok := FindPath(layout, "LA", "LA", Forward)
	require.True(t, ok)
	assert.Empty(t, path)
}

func TestFindPath_UnreachableCityFails(t *testing.T) {
	t.Parallel()

	layout := track.New()
	layout.AddSegment(track.Segment{
		Src: "A", Dst: "B",
		Approach: nil, AtCity: nil,
	})
	_, ok := FindPath(layout, "A", "ZZZ", Forward)
	assert.False(t, ok)
}

func TestFindPath_FirstStepKeepsInitialOrientation(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	path, ok := FindPath(layout, "LA", "LAS_VEGAS", Forward)
	require.True(t, ok)
	require.Len(t, path, 1)
	assert.Equal(t, Forward, path[0].Orientation)
}

func TestPathString_RendersCityChain(t *testing.T) {
	t.Parallel()

	layout := track.DefaultLayout()
	path, ok := FindPath(layout, "LA", "CALGARY", Forward)
	require.True(t, ok)
	s := PathString("LA", path)
	assert.Contains(t, s, "LA")
	assert.Contains(t, s, "CALGARY")
}
