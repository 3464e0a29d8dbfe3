// Command trainhub runs one train's follower process: a state machine
// that drives the train forward or backward until a target color pattern
// is detected, broadcasting status on arrival and periodically while
// pursuing.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/color"
	"github.com/eggybricks/trainctl/internal/config"
	"github.com/eggybricks/trainctl/internal/followers/trainhub"
	"github.com/eggybricks/trainctl/internal/radio"
	"github.com/eggybricks/trainctl/internal/radio/memradio"
	udpradio "github.com/eggybricks/trainctl/internal/radio/udp"
	"github.com/eggybricks/trainctl/internal/wire"
)

var version = "dev"

// fakeMotor stands in for a pybricks train motor: there is no physical
// actuator attached, so Drive and Brake only log the action they would
// take.
type fakeMotor struct {
	train  string
	logger *logrus.Logger
}

func (m *fakeMotor) Drive(power int) error {
	m.logger.WithFields(logrus.Fields{"train": m.train, "power": power}).Debug("trainhub: motor drive")
	return nil
}

func (m *fakeMotor) Brake() error {
	m.logger.WithField("train", m.train).Debug("trainhub: motor brake")
	return nil
}

// fakeColorSensor stands in for a pybricks color sensor: operators drive
// it by writing a color name to a FIFO-style channel (stdin, in the
// simplest case), defaulting to NONE when nothing has been set yet.
type fakeColorSensor struct {
	current color.Color
}

func (s *fakeColorSensor) Color() color.Color { return s.current }
func (s *fakeColorSensor) Distance() float64  { return 0 }
func (s *fakeColorSensor) set(c color.Color)  { s.current = c }

// readSensorFeed lets an operator drive the fake color sensor from stdin
// (one color name per line) in place of the real BuildHAT hardware.
func readSensorFeed(sensor *fakeColorSensor, logger *logrus.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		c, ok := color.FromName(name)
		if !ok {
			logger.WithField("input", name).Warn("trainhub: unrecognized color on stdin, ignoring")
			continue
		}
		sensor.set(c)
	}
}

func main() {
	train := flag.String("train", "T1", "train tag, must match the leader's --train declaration")
	index := flag.Int("index", 1, "this train's 1-based declaration order, used to compute its status channel")
	speed := flag.Int("speed", 60, "motor drive power, percent")
	transport := flag.String("transport", "mem", "radio transport: mem or udp")
	radioBasePort := flag.Int("radio-base-port", 30000, "UDP base port (transport=udp)")
	broadcastAddr := flag.String("broadcast-addr", "255.255.255.255", "UDP broadcast address (transport=udp)")
	minRepeats := flag.Int("min-repeats", config.DefaultMinRepeats, "pattern-match stabilization run length")
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

	var r radio.Radio
	var err error
	switch *transport {
	case "udp":
		r, err = udpradio.New(udpradio.Config{BasePort: *radioBasePort, BroadcastAddr: *broadcastAddr, Logger: logger})
	case "mem":
		r = memradio.New()
	default:
		logger.Fatalf("trainhub: unknown transport %q", *transport)
	}
	if err != nil {
		logger.WithError(err).Fatal("trainhub: opening radio")
	}
	defer r.Close()

	sensor := &fakeColorSensor{}
	motor := &fakeMotor{train: *train, logger: logger}
	ch := wire.TrainStatusChannel(*index)

	hub := trainhub.New(*train, motor, sensor, r, ch, *speed, logger)
	hub.MinRepeats = *minRepeats

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go readSensorFeed(sensor, logger)

	logger.WithFields(logrus.Fields{"train": *train, "channel": ch}).Info("trainhub: ready")
	if err := hub.Run(ctx); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("trainhub: run loop exited")
	}
}
