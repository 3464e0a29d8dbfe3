package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eggybricks/trainctl/internal/leaderstate"
	"github.com/eggybricks/trainctl/internal/track"
)

// haDevice groups every entity this bridge publishes under one
// Home-Assistant device card.
type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// haDiscoveryConfig is the payload published to a discovery config topic.
// Home Assistant creates (or updates) the entity the first time it sees
// this retained message.
type haDiscoveryConfig struct {
	Name        string   `json:"name"`
	UniqueID    string   `json:"unique_id"`
	StateTopic  string   `json:"state_topic"`
	Device      haDevice `json:"device"`
	Icon        string   `json:"icon,omitempty"`
}

const discoveryPrefixDefault = "homeassistant"

// Bridge mirrors leaderstate.State to MQTT at a fixed interval, publishing
// Home Assistant discovery configs once per entity the first time it is
// seen. It never reads back from MQTT and never influences planning or
// execution.
type Bridge struct {
	client          *Client
	state           *leaderstate.State
	track           *track.Track
	discoveryPrefix string
	device          haDevice
	logger          *logrus.Logger

	publishedSwitch map[track.SwitchID]bool
	publishedTrain  map[string]bool
}

// NewBridge returns a Bridge publishing through client for the switches
// owned by t and the train tags later passed to Run. discoveryPrefix
// defaults to "homeassistant" when empty.
func NewBridge(client *Client, state *leaderstate.State, t *track.Track, discoveryPrefix string, logger *logrus.Logger) *Bridge {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if discoveryPrefix == "" {
		discoveryPrefix = discoveryPrefixDefault
	}
	return &Bridge{
		client:          client,
		state:           state,
		track:           t,
		discoveryPrefix: discoveryPrefix,
		device: haDevice{
			Identifiers:  []string{"trainctl-leader"},
			Name:         "Train Control Leader",
			Manufacturer: "trainctl",
			Model:        "layout-controller",
		},
		logger:          logger,
		publishedSwitch: make(map[track.SwitchID]bool),
		publishedTrain:  make(map[string]bool),
	}
}

// Run publishes state every interval until ctx is done. Publish failures are
// logged and skipped; a broker outage never aborts the run or affects the
// leader's own command loop.
func (b *Bridge) Run(ctx context.Context, trainTags []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		b.publishOnce(trainTags)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Bridge) publishOnce(trainTags []string) {
	for sw := range b.track.SwitchOwner {
		pos, ok := b.state.SwitchPosition(sw)
		if !ok {
			continue
		}
		b.ensureSwitchDiscovery(sw)
		topic := b.stateTopic("switch", string(sw))
		if err := b.client.Publish(topic, []byte(pos.String()), true); err != nil {
			b.logger.WithError(err).WithField("switch", sw).Debug("telemetry: switch publish failed")
		}
	}

	for _, tag := range trainTags {
		st, ok := b.state.Train(tag)
		if !ok {
			continue
		}
		b.ensureTrainDiscovery(tag)
		payload, err := json.Marshal(struct {
			Color    string `json:"color"`
			Movement string `json:"movement"`
		}{Color: st.Color.String(), Movement: st.Movement.String()})
		if err != nil {
			continue
		}
		topic := b.stateTopic("train", tag)
		if err := b.client.Publish(topic, payload, true); err != nil {
			b.logger.WithError(err).WithField("train", tag).Debug("telemetry: train publish failed")
		}
	}
}

func (b *Bridge) ensureSwitchDiscovery(sw track.SwitchID) {
	if b.publishedSwitch[sw] {
		return
	}
	cfg := haDiscoveryConfig{
		Name:       fmt.Sprintf("Switch %s", sw),
		UniqueID:   fmt.Sprintf("trainctl_switch_%s", sw),
		StateTopic: b.stateTopic("switch", string(sw)),
		Device:     b.device,
		Icon:       "mdi:railroad-light",
	}
	b.publishDiscovery("sensor", fmt.Sprintf("switch_%s", sw), cfg)
	b.publishedSwitch[sw] = true
}

func (b *Bridge) ensureTrainDiscovery(tag string) {
	if b.publishedTrain[tag] {
		return
	}
	cfg := haDiscoveryConfig{
		Name:       fmt.Sprintf("Train %s", tag),
		UniqueID:   fmt.Sprintf("trainctl_train_%s", tag),
		StateTopic: b.stateTopic("train", tag),
		Device:     b.device,
		Icon:       "mdi:train",
	}
	b.publishDiscovery("sensor", fmt.Sprintf("train_%s", tag), cfg)
	b.publishedTrain[tag] = true
}

func (b *Bridge) publishDiscovery(component, objectID string, cfg haDiscoveryConfig) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	topic := fmt.Sprintf("%s/%s/trainctl/%s/config", b.discoveryPrefix, component, objectID)
	if err := b.client.Publish(topic, payload, true); err != nil {
		b.logger.WithError(err).WithField("topic", topic).Debug("telemetry: discovery publish failed")
	}
}

func (b *Bridge) stateTopic(kind, id string) string {
	return fmt.Sprintf("trainctl/%s/%s/state", kind, id)
}
