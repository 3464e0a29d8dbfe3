// Command switchhub runs one switch-controller follower process: it owns a
// fixed subset of the layout's switches, drives their motors on command,
// and broadcasts a position snapshot after every move.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/config"
	"github.com/eggybricks/trainctl/internal/followers/switchhub"
	"github.com/eggybricks/trainctl/internal/radio"
	"github.com/eggybricks/trainctl/internal/radio/memradio"
	udpradio "github.com/eggybricks/trainctl/internal/radio/udp"
	"github.com/eggybricks/trainctl/internal/track"
)

var version = "dev"

// All timing and retry constants live in internal/config/defaults.go.

// hubSwitches lists, per hub number, the switches it owns and their
// physical wiring: a DC motor ("M") settles faster than a geared motor
// ("L"), and polarity encodes which sign of power drives the switch
// toward DIVERGING.
var hubSwitches = map[int][]struct {
	id       track.SwitchID
	polarity int
	kind     string // "M" or "L"
}{
	1: {{"SWITCH_A", 1, "M"}, {"SWITCH_B", -1, "L"}},
	2: {{"SWITCH_C", -1, "M"}, {"SWITCH_D", 1, "M"}},
	3: {{"SWITCH_E", -1, "L"}, {"SWITCH_F", -1, "M"}, {"SWITCH_G", 1, "L"}},
	4: {{"SWITCH_H", 1, "M"}, {"SWITCH_I", -1, "L"}},
	5: {{"SWITCH_J", 1, "M"}},
}

func moveTime(kind string) time.Duration {
	if kind == "L" {
		return config.MotorMoveTimeL
	}
	return config.MotorMoveTimeM
}

// fakeMotor stands in for a pybricks DCMotor/Motor: there is no physical
// actuator attached, so Drive and Brake only log the action they would
// take.
type fakeMotor struct {
	id     track.SwitchID
	logger *logrus.Logger
}

func (m *fakeMotor) Drive(power int) error {
	m.logger.WithFields(logrus.Fields{"switch": m.id, "power": power}).Debug("switchhub: motor drive")
	return nil
}

func (m *fakeMotor) Brake() error {
	m.logger.WithField("switch", m.id).Debug("switchhub: motor brake")
	return nil
}

func main() {
	hubNumber := flag.Int("hub", 1, "hub number (1-5), selects which switches this process owns")
	transport := flag.String("transport", "mem", "radio transport: mem or udp")
	radioBasePort := flag.Int("radio-base-port", 30000, "UDP base port (transport=udp)")
	broadcastAddr := flag.String("broadcast-addr", "255.255.255.255", "UDP broadcast address (transport=udp)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	specs, ok := hubSwitches[*hubNumber]
	if !ok {
		logger.Fatalf("switchhub: unknown hub number %d, want 1-5", *hubNumber)
	}

	var r radio.Radio
	var err error
	switch *transport {
	case "udp":
		r, err = udpradio.New(udpradio.Config{BasePort: *radioBasePort, BroadcastAddr: *broadcastAddr, Logger: logger})
	case "mem":
		r = memradio.New()
	default:
		logger.Fatalf("switchhub: unknown transport %q", *transport)
	}
	if err != nil {
		logger.WithError(err).Fatal("switchhub: opening radio")
	}
	defer r.Close()

	hubSpecs := make([]switchhub.SwitchSpec, 0, len(specs))
	for _, s := range specs {
		hubSpecs = append(hubSpecs, switchhub.SwitchSpec{
			ID:       s.id,
			Motor:    &fakeMotor{id: s.id, logger: logger},
			Polarity: s.polarity,
			MoveTime: moveTime(s.kind),
		})
	}

	hub := switchhub.New(*hubNumber, r, hubSpecs, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := hub.Boot(ctx); err != nil {
		logger.WithError(err).Fatal("switchhub: boot failed")
	}
	logger.WithField("hub", *hubNumber).Info("switchhub: ready")

	if err := hub.Run(ctx); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("switchhub: run loop exited")
	}
}
