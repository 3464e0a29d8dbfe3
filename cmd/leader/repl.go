package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eggybricks/trainctl/internal/planner"
	"github.com/eggybricks/trainctl/internal/track"
)

// runREPL is the root command's default action: a line-oriented loop
// reproducing the operator CLI's verbs (s, t, p, m, st/status, q).
func runREPL(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd.Context())
	defer a.shutdown()

	fmt.Println("trainctl leader ready. Commands:")
	fmt.Println("  s <switch> {straight|diverging}")
	fmt.Println("  t <train> s")
	fmt.Println("  t <train> {f|b} <color>-<color>[-...]")
	fmt.Println("  p <train> <start> <end> [b]")
	fmt.Println("  m")
	fmt.Println("  st | status")
	fmt.Println("  q")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		verb, rest := fields[0], fields[1:]

		if err := dispatchREPL(cmd.Context(), a, verb, rest, scanner); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Println("error:", err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func dispatchREPL(ctx context.Context, a *app, verb string, args []string, scanner *bufio.Scanner) error {
	switch verb {
	case "q", "quit", "exit":
		return errQuit

	case "st", "status":
		printStatus(a)
		return nil

	case "s", "switch":
		if len(args) != 2 {
			return fmt.Errorf("usage: s <switch> {straight|diverging}")
		}
		pos, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		return runSwitch(ctx, a, args[0], pos)

	case "t", "train":
		return dispatchTrain(ctx, a, args)

	case "p", "plan":
		return dispatchPlan(ctx, a, args)

	case "m", "move":
		return runMoveIntake(ctx, a, scanner)

	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

const trainUsage = "usage: t <train> s | t <train> {f|b} <color>-<color>[-...]"

// dispatchTrain implements "t <train> s" (stop) and
// "t <train> {f|b} <color>-<color>[-...]" (raw pattern movement).
func dispatchTrain(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%s", trainUsage)
	}
	train := args[0]
	switch args[1] {
	case "s":
		if len(args) != 2 {
			return fmt.Errorf("%s", trainUsage)
		}
		return runStop(ctx, a, train)
	case "f", "b":
		if len(args) != 3 {
			return fmt.Errorf("%s", trainUsage)
		}
		pattern, err := parsePattern(args[2])
		if err != nil {
			return err
		}
		return runRawMove(ctx, a, train, args[1] == "b", pattern)
	default:
		return fmt.Errorf("%s", trainUsage)
	}
}

// dispatchPlan implements "p <train> <start> <end> [b]": a single-train
// BFS-based planned run, with an optional trailing "b" setting the train's
// initial orientation to BACKWARD (default FORWARD).
func dispatchPlan(ctx context.Context, a *app, args []string) error {
	usage := "usage: p <train> <start> <end> [b]"
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("%s", usage)
	}
	train, start, end := args[0], track.City(args[1]), track.City(args[2])
	orientation := planner.Forward
	if len(args) == 4 {
		if args[3] != "b" {
			return fmt.Errorf("%s", usage)
		}
		orientation = planner.Backward
	}
	return runPlannedRun(ctx, a, train, start, end, orientation, true)
}

// runMoveIntake implements "m": an interactive loop that prompts for each
// train's current position (a city, or "city1,city2" naming the segment
// it's mid-traversal on) and goal city, then plans, prints the schedule,
// and executes only on confirmation.
func runMoveIntake(ctx context.Context, a *app, scanner *bufio.Scanner) error {
	positions := make(map[string]planner.Location)
	var goals []planner.Goal
	var order []string

	fmt.Println("multi-train intake: enter a train tag, its current position, and its goal city; blank train tag ends intake")
	for {
		train, ok := readLine(scanner, "  train (blank to finish)> ")
		if !ok {
			return errQuit
		}
		if train == "" {
			break
		}

		posRaw, ok := readLine(scanner, fmt.Sprintf("  %s current position (city or city1,city2)> ", train))
		if !ok {
			return errQuit
		}
		loc, err := parseLocation(posRaw)
		if err != nil {
			return err
		}

		goalRaw, ok := readLine(scanner, fmt.Sprintf("  %s goal city> ", train))
		if !ok {
			return errQuit
		}
		if goalRaw == "" {
			return fmt.Errorf("goal city required for %s", train)
		}

		positions[train] = loc
		goals = append(goals, planner.Goal{Train: train, City: track.City(goalRaw)})
		order = append(order, train)
	}
	if len(goals) == 0 {
		return fmt.Errorf("no trains entered")
	}

	a.world.setLocations(positions)
	plan, err := planMultiTrain(a, goals, order)
	if err != nil {
		return err
	}

	confirm, ok := readLine(scanner, "execute plan? [y/N] ")
	if !ok {
		return errQuit
	}
	switch strings.ToLower(confirm) {
	case "y", "yes":
		return plan.execute(ctx, a)
	default:
		fmt.Println("aborted")
		return nil
	}
}

// readLine prints prompt and reads one line from scanner, trimmed of
// surrounding whitespace. The bool result is false when the underlying
// input has ended (EOF or read error), mirroring bufio.Scanner.Scan.
func readLine(scanner *bufio.Scanner, prompt string) (string, bool) {
	fmt.Print(prompt)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// parseLocation parses a REPL-supplied current position: either a bare
// city (the train is stopped there) or "city1,city2" (the train is
// mid-traversal on that directed segment).
func parseLocation(s string) (planner.Location, error) {
	parts := strings.Split(s, ",")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return planner.Location{}, fmt.Errorf("current position required")
		}
		return planner.AtCity(track.City(parts[0])), nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return planner.Location{}, fmt.Errorf("invalid segment position %q, want city1,city2", s)
		}
		return planner.OnSegment(track.City(parts[0]), track.City(parts[1])), nil
	default:
		return planner.Location{}, fmt.Errorf("invalid position %q, want city or city1,city2", s)
	}
}
