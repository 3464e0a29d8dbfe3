package trainhub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eggybricks/trainctl/internal/color"
)

func TestConsolidate_StabilizesRunsAndCollapsesDuplicates(t *testing.T) {
	t.Parallel()

	history := []color.Color{
		color.RED, color.RED,
		color.YELLOW,
		color.GREEN, color.GREEN,
		color.RED, color.RED,
		color.YELLOW, color.YELLOW,
	}
	got := Consolidate(history, 2)
	want := []color.Color{color.RED, color.GREEN, color.RED, color.YELLOW}
	assert.Equal(t, want, got)
}

func TestConsolidate_DropsRunsShorterThanMinRepeats(t *testing.T) {
	t.Parallel()

	history := []color.Color{color.RED, color.YELLOW, color.YELLOW, color.GREEN}
	got := Consolidate(history, 2)
	assert.Equal(t, []color.Color{color.YELLOW}, got)
}

func TestConsolidate_EmptyHistoryReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Consolidate(nil, 2))
}

func TestConsolidate_MinRepeatsOneKeepsEveryRun(t *testing.T) {
	t.Parallel()

	history := []color.Color{color.RED, color.YELLOW, color.YELLOW, color.GREEN}
	got := Consolidate(history, 1)
	assert.Equal(t, []color.Color{color.RED, color.YELLOW, color.GREEN}, got)
}
