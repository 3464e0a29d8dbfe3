package track

import (
	"github.com/eggybricks/trainctl/internal/color"
	"github.com/eggybricks/trainctl/internal/wire"
)

const (
	straight  = wire.Straight
	diverging = wire.Diverging
)

type switchSpec struct {
	id  SwitchID
	pos wire.SwitchPosition
}

type segSpec struct {
	src, dst   City
	switches   []switchSpec
	approach   color.Pattern
	atCity     color.Pattern
	distance   float64
	reverseFor []City
}

// DefaultLayout returns the six-city, ten-switch reference network used by
// the CLI default and by the package's tests: every city, switch, and
// reversal rule the planner and synthesis packages need to exercise.
func DefaultLayout() *Track {
	specs := []segSpec{
		{"LA", "LAS_VEGAS", switches("SWITCH_A", straight, "SWITCH_B", diverging),
			pat(color.RED, color.YELLOW, color.GREEN), pat(color.BLUE, color.RED), 100,
			cities("LA")},
		{"LAS_VEGAS", "LA", nil,
			pat(color.GREEN, color.YELLOW, color.RED), pat(color.YELLOW, color.RED), 100,
			cities("CALGARY", "LAS_VEGAS", "KANSAS_CITY")},
		{"LA", "CALGARY", switches("SWITCH_A", diverging),
			pat(color.RED, color.BLUE, color.YELLOW), pat(color.YELLOW, color.BLUE), 224,
			cities("NYC", "KANSAS_CITY", "LA")},
		{"CALGARY", "LA", switches("SWITCH_C", diverging),
			pat(color.BLUE, color.YELLOW, color.RED), pat(color.YELLOW, color.RED), 224,
			cities("CALGARY", "LAS_VEGAS", "KANSAS_CITY")},
		{"CALGARY", "KANSAS_CITY", switches("SWITCH_C", straight, "SWITCH_D", straight),
			pat(color.YELLOW, color.GREEN, color.BLUE), pat(color.GREEN, color.RED), 212,
			cities("LAS_VEGAS", "LA")},
		{"KANSAS_CITY", "CALGARY", switches("SWITCH_F", diverging),
			pat(color.GREEN, color.BLUE, color.YELLOW), pat(color.YELLOW, color.BLUE), 212,
			cities("NYC", "KANSAS_CITY", "LA")},
		{"LA", "KANSAS_CITY", switches("SWITCH_A", straight, "SWITCH_B", straight),
			pat(color.RED, color.BLUE, color.GREEN), pat(color.GREEN, color.RED), 200,
			cities("LAS_VEGAS", "LA")},
		{"KANSAS_CITY", "LA", switches("SWITCH_F", straight, "SWITCH_E", straight),
			pat(color.GREEN, color.BLUE, color.RED), pat(color.YELLOW, color.RED), 200,
			cities("CALGARY", "LAS_VEGAS", "KANSAS_CITY")},
		{"LAS_VEGAS", "KANSAS_CITY", nil,
			pat(color.RED, color.GREEN, color.YELLOW), pat(color.GREEN, color.RED), 108,
			cities("LAS_VEGAS", "LA")},
		{"KANSAS_CITY", "LAS_VEGAS", switches("SWITCH_F", straight, "SWITCH_E", diverging),
			pat(color.YELLOW, color.GREEN, color.RED), pat(color.RED, color.BLUE), 108,
			cities("LA")},
		{"CALGARY", "NYC", switches("SWITCH_C", straight, "SWITCH_D", diverging),
			pat(color.RED, color.YELLOW, color.BLUE, color.GREEN), pat(color.BLUE, color.GREEN), 328,
			cities("KANSAS_CITY", "ATLANTA", "CALGARY")},
		{"NYC", "CALGARY", switches("SWITCH_H", straight, "SWITCH_I", diverging),
			pat(color.BLUE, color.GREEN, color.YELLOW, color.RED), pat(color.YELLOW, color.BLUE), 328,
			cities("NYC", "KANSAS_CITY", "LA")},
		{"KANSAS_CITY", "NYC", switches("SWITCH_G", straight),
			pat(color.RED, color.GREEN, color.BLUE), pat(color.BLUE, color.GREEN), 128,
			cities("KANSAS_CITY", "ATLANTA", "CALGARY")},
		{"NYC", "KANSAS_CITY", switches("SWITCH_H", straight, "SWITCH_I", straight),
			pat(color.BLUE, color.GREEN, color.RED), pat(color.RED, color.GREEN), 128,
			cities("NYC", "ATLANTA")},
		{"KANSAS_CITY", "ATLANTA", switches("SWITCH_G", diverging),
			pat(color.RED, color.GREEN, color.BLUE, color.YELLOW), pat(color.YELLOW, color.GREEN), 192,
			cities("KANSAS_CITY", "ATLANTA")},
		{"ATLANTA", "KANSAS_CITY", switches("SWITCH_J", diverging),
			pat(color.BLUE, color.YELLOW, color.GREEN, color.RED), pat(color.RED, color.GREEN), 192,
			cities("NYC", "ATLANTA")},
		{"NYC", "ATLANTA", switches("SWITCH_H", diverging),
			pat(color.RED, color.BLUE, color.GREEN, color.YELLOW), pat(color.YELLOW, color.GREEN), 188,
			cities("KANSAS_CITY", "ATLANTA")},
		{"ATLANTA", "NYC", switches("SWITCH_J", straight),
			pat(color.GREEN, color.YELLOW, color.BLUE, color.RED), pat(color.BLUE, color.GREEN), 188,
			cities("KANSAS_CITY", "ATLANTA", "CALGARY")},
	}

	t := New()
	for _, s := range specs {
		swMap := make(map[SwitchID]wire.SwitchPosition, len(s.switches))
		for _, sp := range s.switches {
			swMap[sp.id] = sp.pos
		}
		rev := make(map[City]bool, len(s.reverseFor))
		for _, c := range s.reverseFor {
			rev[c] = true
		}
		t.AddSegment(Segment{
			Src:        s.src,
			Dst:        s.dst,
			Switches:   swMap,
			Approach:   s.approach,
			AtCity:     s.atCity,
			Distance:   s.distance,
			ReverseFor: rev,
		})
	}

	// Static switch->hub ownership: hub 1 near LA, hub 2 near Calgary,
	// hub 3 near Kansas City, hub 4 near NYC, hub 5 near Atlanta.
	t.SwitchOwner = map[SwitchID]int{
		"SWITCH_A": 1, "SWITCH_B": 1,
		"SWITCH_C": 2, "SWITCH_D": 2,
		"SWITCH_E": 3, "SWITCH_F": 3, "SWITCH_G": 3,
		"SWITCH_H": 4, "SWITCH_I": 4,
		"SWITCH_J": 5,
	}

	return t
}

func switches(kv ...interface{}) []switchSpec {
	out := make([]switchSpec, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, switchSpec{id: SwitchID(kv[i].(string)), pos: kv[i+1].(wire.SwitchPosition)})
	}
	return out
}

func pat(cs ...color.Color) color.Pattern {
	return color.Pattern(cs)
}

func cities(names ...string) []City {
	out := make([]City, len(names))
	for i, n := range names {
		out[i] = City(n)
	}
	return out
}
