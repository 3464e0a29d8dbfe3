package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eggybricks/trainctl/internal/color"
	"github.com/eggybricks/trainctl/internal/planner"
	"github.com/eggybricks/trainctl/internal/synth"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

func newSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch SWITCH_ID straight|diverging",
		Short: "Set a single switch to a target position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			pos, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return runSwitch(cmd.Context(), a, args[0], pos)
		},
	}
}

// runSwitch drives a single switch command, shared by the one-shot
// subcommand and the REPL's "s" verb.
func runSwitch(ctx context.Context, a *app, switchID string, pos wire.SwitchPosition) error {
	sw := track.SwitchID(switchID)
	if _, ok := a.track.SwitchOwner[sw]; !ok {
		return fmt.Errorf("unknown switch %q", sw)
	}
	return a.exec.Run(ctx, []synth.Command{synth.SwitchCommand{Switch: sw, Position: pos}})
}

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train TRAIN_TAG CITY",
		Short: "Plan and drive one train to a city via breadth-first search",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			train, goal := args[0], track.City(args[1])
			return runSingleTrain(cmd.Context(), a, train, goal, true)
		},
	}
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan TRAIN_TAG CITY",
		Short: "Compute (but do not execute) a single-train route",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			train, goal := args[0], track.City(args[1])
			return runSingleTrain(cmd.Context(), a, train, goal, false)
		},
	}
}

// runSingleTrain plans (and optionally drives) one train to goal from its
// currently tracked location and facing, shared by the "train"/"plan"
// subcommands.
func runSingleTrain(ctx context.Context, a *app, train string, goal track.City, execute bool) error {
	ts, ok := a.world.trainState(train)
	if !ok {
		return fmt.Errorf("unknown train %q (declare it with --train and --home)", train)
	}
	if !ts.Location.IsAtCity() {
		return fmt.Errorf("%s is mid-segment; only city-to-city planning is supported", train)
	}
	return runPlannedRun(ctx, a, train, ts.Location.City(), goal, ts.Orientation, execute)
}

// runPlannedRun computes (and optionally drives) a single-train BFS plan
// from start to goal in the given initial orientation. It backs both
// runSingleTrain, which reads start/orientation from tracked world state,
// and the REPL's "p <train> <start> <end> [b]" verb, which takes them
// explicitly.
func runPlannedRun(ctx context.Context, a *app, train string, start, goal track.City, orientation planner.Orientation, execute bool) error {
	if _, ok := a.world.trainState(train); !ok {
		return fmt.Errorf("unknown train %q (declare it with --train and --home)", train)
	}
	if start == goal {
		fmt.Printf("%s is already at %s\n", train, goal)
		return nil
	}

	path, ok := planner.FindPath(a.track, start, goal, orientation)
	if !ok {
		return fmt.Errorf("no path from %s to %s", start, goal)
	}
	fmt.Println(planner.PathString(start, path))

	if !execute {
		return nil
	}

	switches := synth.SwitchMap(a.state.Switches())
	groups, finalOrientation := synth.SynthesizePath(train, path, orientation, switches)
	cmds := synth.MergeGroups(map[string][]synth.Group{train: groups}, []string{train})

	if err := a.exec.Run(ctx, cmds); err != nil {
		return err
	}
	a.world.arrive(train, goal, finalOrientation)
	fmt.Printf("%s arrived at %s\n", train, goal)
	return nil
}

// runStop halts train immediately, for the REPL's "t <train> s" verb.
func runStop(ctx context.Context, a *app, train string) error {
	if _, ok := a.world.trainState(train); !ok {
		return fmt.Errorf("unknown train %q (declare it with --train and --home)", train)
	}
	return a.exec.Run(ctx, []synth.Command{synth.StopCommand{Train: train}})
}

// runRawMove drives train forward or backward until pattern is detected,
// bypassing the planner, for the REPL's "t <train> {f|b} <color>-<color>
// [-...]" verb. Per spec, a backward command reverses the supplied pattern
// before sending, since a hub always senses a pattern in direction of
// travel.
func runRawMove(ctx context.Context, a *app, train string, backward bool, pattern color.Pattern) error {
	if _, ok := a.world.trainState(train); !ok {
		return fmt.Errorf("unknown train %q (declare it with --train and --home)", train)
	}
	op := wire.OpForwardUntilPattern
	if backward {
		op = wire.OpBackwardUntilPattern
		pattern = pattern.Reversed()
	}
	return a.exec.Run(ctx, []synth.Command{synth.PursueCommand{Train: train, Op: op, Pattern: pattern}})
}

// parsePattern parses a hyphen-joined color sequence such as
// "RED-YELLOW-GREEN" as given to the REPL's raw movement verb.
func parsePattern(s string) (color.Pattern, error) {
	parts := strings.Split(s, "-")
	pat := make(color.Pattern, 0, len(parts))
	for _, p := range parts {
		c, ok := color.FromName(p)
		if !ok || !color.IsPatternColor(c) {
			return nil, fmt.Errorf("invalid pattern color %q", p)
		}
		pat = append(pat, c)
	}
	return pat, nil
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move TRAIN=CITY [TRAIN=CITY ...]",
		Short: "Plan and drive multiple trains to their goal cities, avoiding collisions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			goals, order, err := parseGoals(args)
			if err != nil {
				return err
			}
			return runMultiTrain(cmd.Context(), a, goals, order)
		},
	}
}

func parseGoals(args []string) ([]planner.Goal, []string, error) {
	var goals []planner.Goal
	var order []string
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, nil, fmt.Errorf("invalid goal %q, want TRAIN=CITY", arg)
		}
		goals = append(goals, planner.Goal{Train: parts[0], City: track.City(parts[1])})
		order = append(order, parts[0])
	}
	return goals, order, nil
}

// multiTrainPlan is a computed-but-not-yet-executed multi-train A* plan:
// the synthesized wire commands plus the world-state update executing them
// implies. Split out of runMultiTrain so the REPL's "m" intake loop can
// print the schedule and ask for confirmation before driving anything.
type multiTrainPlan struct {
	goals  []planner.Goal
	cmds   []synth.Command
	finals map[string]planner.TrainState
}

// planMultiTrain runs multi-train A* over goals and synthesizes the
// resulting wire commands without executing them.
func planMultiTrain(a *app, goals []planner.Goal, trainOrder []string) (*multiTrainPlan, error) {
	initial := a.world.snapshot()
	initialOrientations := make(map[string]planner.Orientation, len(trainOrder))
	for _, train := range trainOrder {
		ts, ok := initial.Trains[train]
		if !ok {
			return nil, fmt.Errorf("unknown train %q (declare it with --train and --home)", train)
		}
		initialOrientations[train] = ts.Orientation
	}

	moves, ok := planner.FindPaths(a.track, a.dist, initial, goals, a.cfg.MaxSearchNodes)
	if !ok {
		return nil, fmt.Errorf("no joint plan found within %d node expansions", a.cfg.MaxSearchNodes)
	}

	switches := synth.SwitchMap(a.state.Switches())
	cmds, finalOrientations := synth.SynthesizeMoves(moves, initialOrientations, switches, trainOrder)

	finals := make(map[string]planner.TrainState, len(goals))
	for _, g := range goals {
		finals[g.Train] = planner.TrainState{Location: planner.AtCity(g.City), Orientation: finalOrientations[g.Train]}
	}

	fmt.Printf("multi-train plan: %d moves\n", len(moves))
	return &multiTrainPlan{goals: goals, cmds: cmds, finals: finals}, nil
}

// execute drives the plan's synthesized commands and updates world state
// with each train's planned arrival.
func (p *multiTrainPlan) execute(ctx context.Context, a *app) error {
	if err := a.exec.Run(ctx, p.cmds); err != nil {
		return err
	}
	a.world.applyFinalOrientations(p.finals)
	for _, g := range p.goals {
		fmt.Printf("%s arrived at %s\n", g.Train, g.City)
	}
	return nil
}

// runMultiTrain plans (via multi-train A*) and drives every goal's train,
// shared by the "move" subcommand.
func runMultiTrain(ctx context.Context, a *app, goals []planner.Goal, trainOrder []string) error {
	plan, err := planMultiTrain(a, goals, trainOrder)
	if err != nil {
		return err
	}
	return plan.execute(ctx, a)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Print the leader's current switch and train state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			printStatus(a)
			return nil
		},
	}
}

func printStatus(a *app) {
	fmt.Println("switches:")
	positions := a.state.Switches()
	for sw := range a.track.SwitchOwner {
		pos, ok := positions[sw]
		if !ok {
			fmt.Printf("  %-10s unknown\n", sw)
			continue
		}
		fmt.Printf("  %-10s %s\n", sw, pos)
	}

	fmt.Println("trains:")
	for _, tag := range a.trains {
		ts, ok := a.world.trainState(tag)
		loc := "unknown"
		if ok {
			loc = fmt.Sprintf("%s facing %s", ts.Location, ts.Orientation)
		}
		status, known := a.state.Train(tag)
		movement := wire.MovementStopped.String()
		if known {
			movement = status.Movement.String()
		}
		fmt.Printf("  %-6s %-28s movement=%s\n", tag, loc, movement)
	}
}

func parsePosition(s string) (wire.SwitchPosition, error) {
	switch strings.ToLower(s) {
	case "straight":
		return wire.Straight, nil
	case "diverging":
		return wire.Diverging, nil
	default:
		return 0, fmt.Errorf("invalid switch position %q, want straight|diverging", s)
	}
}
