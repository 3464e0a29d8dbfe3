// Command leader runs the layout controller's leader process: it builds
// the track graph, maintains the coordinator state, and accepts either a
// one-shot subcommand or an interactive REPL for planning and driving
// train movements.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eggybricks/trainctl/internal/config"
	"github.com/eggybricks/trainctl/internal/executor"
	"github.com/eggybricks/trainctl/internal/leaderstate"
	"github.com/eggybricks/trainctl/internal/radio"
	"github.com/eggybricks/trainctl/internal/radio/memradio"
	udpradio "github.com/eggybricks/trainctl/internal/radio/udp"
	"github.com/eggybricks/trainctl/internal/telemetry"
	"github.com/eggybricks/trainctl/internal/track"
	"github.com/eggybricks/trainctl/internal/wire"
)

var version = "dev"

// app bundles every long-lived component the leader's commands share,
// built once in PersistentPreRunE and threaded through cmd.Context().
type app struct {
	cfg    *config.Config
	track  *track.Track
	dist   *track.DistanceTable
	radio  radio.Radio
	state  *leaderstate.State
	exec   *executor.Executor
	logger *logrus.Logger
	trains []string // declared train tags, in order (train index = position+1)

	// world is the leader's own belief about every train's location and
	// orientation, since status frames report color/movement, never
	// position: the leader derives position purely from the paths it has
	// planned and executed. Mutated only by commands run from the REPL
	// or a one-shot subcommand, which never overlap.
	world *worldState

	telemetryClient *telemetry.Client
	shutdown        func()
}

type appContextKey struct{}

func appFrom(ctx context.Context) *app {
	a, _ := ctx.Value(appContextKey{}).(*app)
	return a
}

var (
	flagTransport       string
	flagRadioBasePort   int
	flagBroadcastAddr   string
	flagTrains          []string
	flagVerbose         bool
	flagMaxSearchNodes  int
	flagMinRepeats      int
	flagTelemetryURL    string
	flagDiscoveryPrefix string
	flagHome            []string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leader",
		Short:   "Plan routes and drive a model-train layout",
		Version: version,
		RunE:    runREPL,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appContextKey{}, a))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagTransport, "transport", "mem", "radio transport: mem or udp")
	cmd.PersistentFlags().IntVar(&flagRadioBasePort, "radio-base-port", 30000, "UDP base port (transport=udp)")
	cmd.PersistentFlags().StringVar(&flagBroadcastAddr, "broadcast-addr", "255.255.255.255", "UDP broadcast address (transport=udp)")
	cmd.PersistentFlags().StringSliceVar(&flagTrains, "train", []string{"T1", "T2"}, "declared train tags, in channel-assignment order")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().IntVar(&flagMaxSearchNodes, "max-search-nodes", config.DefaultMaxSearchNodes, "A* node-expansion bound")
	cmd.PersistentFlags().IntVar(&flagMinRepeats, "min-repeats", config.DefaultMinRepeats, "pattern-match stabilization run length")
	cmd.PersistentFlags().StringVar(&flagTelemetryURL, "telemetry-mqtt-url", "", "optional MQTT broker URL to mirror state to")
	cmd.PersistentFlags().StringVar(&flagDiscoveryPrefix, "telemetry-discovery-prefix", "homeassistant", "Home Assistant discovery topic prefix")
	cmd.PersistentFlags().StringSliceVar(&flagHome, "home", []string{"T1=LA", "T2=LA"}, "train=city starting positions, e.g. T1=LA")

	cmd.AddCommand(newSwitchCmd())
	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newMoveCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func buildApp(ctx context.Context) (*app, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if flagVerbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	cfg := config.Default()
	cfg.RadioBasePort = flagRadioBasePort
	cfg.RadioBroadcastAddr = flagBroadcastAddr
	cfg.MaxSearchNodes = flagMaxSearchNodes
	cfg.MinRepeats = flagMinRepeats
	cfg.Verbose = flagVerbose
	cfg.TelemetryMQTTURL = flagTelemetryURL
	cfg.TelemetryDiscoveryPrefix = flagDiscoveryPrefix
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := track.DefaultLayout()
	if err := t.Validate(); err != nil {
		logger.WithError(err).Fatal("leader: track validation failed")
	}
	dist := track.ComputeDistances(t)

	var r radio.Radio
	var err error
	switch flagTransport {
	case "udp":
		r, err = udpradio.New(udpradio.Config{BasePort: cfg.RadioBasePort, BroadcastAddr: cfg.RadioBroadcastAddr, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("leader: opening UDP radio: %w", err)
		}
	case "mem":
		r = memradio.New()
	default:
		return nil, fmt.Errorf("leader: unknown transport %q", flagTransport)
	}

	state := leaderstate.New(t)

	cancelCtx, cancel := context.WithCancel(ctx)
	group, runCtx := errgroup.WithContext(cancelCtx)

	listener := leaderstate.NewListener(state, r, logger)
	trainCh := buildTrainChannels(flagTrains)
	group.Go(func() error {
		listener.Run(runCtx, t, trainCh)
		return runCtx.Err()
	})

	var telemetryClient *telemetry.Client
	if cfg.HasTelemetry() {
		client, err := telemetry.NewClient(cfg.TelemetryMQTTURL, "trainctl-leader", logger)
		if err != nil {
			logger.WithError(err).Warn("leader: telemetry bridge disabled, connection failed")
		} else {
			telemetryClient = client
			bridge := telemetry.NewBridge(client, state, t, cfg.TelemetryDiscoveryPrefix, logger)
			group.Go(func() error {
				bridge.Run(runCtx, flagTrains, 5*time.Second)
				return runCtx.Err()
			})
		}
	}

	prompt := func(reason string) bool {
		fmt.Printf("%s\nContinue? (y/n): ", reason)
		var answer string
		fmt.Scanln(&answer)
		return answer == "y" || answer == "Y"
	}
	exec := executor.New(r, state, t, prompt, logger)

	homes, err := parseHomeFlags(flagHome)
	if err != nil {
		return nil, err
	}
	for _, tag := range flagTrains {
		if _, ok := homes[tag]; !ok {
			return nil, fmt.Errorf("leader: no --home entry for declared train %q", tag)
		}
	}
	world := newWorldState(homes, state.Switches())

	a := &app{
		cfg: cfg, track: t, dist: dist, radio: r, state: state, exec: exec,
		logger: logger, trains: flagTrains, world: world,
		telemetryClient: telemetryClient,
		shutdown: func() {
			cancel()
			if err := group.Wait(); err != nil && err != context.Canceled {
				logger.WithError(err).Warn("leader: background group exited")
			}
			if telemetryClient != nil {
				telemetryClient.Disconnect()
			}
			r.Close()
		},
	}
	return a, nil
}

func buildTrainChannels(trains []string) map[string]wire.Channel {
	out := make(map[string]wire.Channel, len(trains))
	for i, tag := range trains {
		out[tag] = wire.TrainStatusChannel(i + 1)
	}
	return out
}

func main() {
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetContext(sigCtx)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
