package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/eggybricks/trainctl/internal/color"
)

// Frame is the closed set of wire-level messages. The only implementations
// are the types in this file; frame() is unexported so no other package can
// add a variant, keeping the union closed at the codec boundary.
type Frame interface {
	Seq() uint32
	frame()
}

// kind tags the first byte of every encoded frame.
type kind uint8

const (
	kindSwitchCommand kind = iota
	kindTrainStopCommand
	kindTrainPursueCommand
	kindSwitchStatus
	kindTrainStatus
)

// SwitchCommand commands a single switch to a target position.
// Wire layout: (seq, switch_label, position).
type SwitchCommand struct {
	SeqNum   uint32
	Switch   string
	Position SwitchPosition
}

func (f SwitchCommand) Seq() uint32 { return f.SeqNum }
func (SwitchCommand) frame()        {}

// TrainStopCommand commands a train to stop.
// Wire layout: (seq, train_tag); the STOP opcode is carried by the frame
// kind byte, not by a separate field.
type TrainStopCommand struct {
	SeqNum uint32
	Train  string
}

func (f TrainStopCommand) Seq() uint32 { return f.SeqNum }
func (TrainStopCommand) frame()        {}

// TrainPursueCommand commands a train to move until a color pattern is
// detected. Wire layout: (seq, train_tag, op, pattern_len, c0, c1, ...).
type TrainPursueCommand struct {
	SeqNum  uint32
	Train   string
	Op      TrainOp // OpForwardUntilPattern or OpBackwardUntilPattern
	Pattern color.Pattern
}

func (f TrainPursueCommand) Seq() uint32 { return f.SeqNum }
func (TrainPursueCommand) frame()        {}

// SwitchStatus is a full snapshot of every switch a hub owns.
// Wire layout: (seq, count, label_1, pos_1, label_2, pos_2, ...).
type SwitchStatus struct {
	SeqNum    uint32
	Positions map[string]SwitchPosition
}

func (f SwitchStatus) Seq() uint32 { return f.SeqNum }
func (SwitchStatus) frame()        {}

// TrainStatus reports a train hub's current color, movement, and (if
// PURSUING) the pattern it is chasing.
// Wire layout: (seq, train_tag, color_code, movement_code, pattern_len, c0, ...).
type TrainStatus struct {
	SeqNum   uint32
	Train    string
	Color    color.Color
	Movement Movement
	Pattern  color.Pattern // empty (pattern_len=0) means "no active target"
}

func (f TrainStatus) Seq() uint32 { return f.SeqNum }
func (TrainStatus) frame()        {}

// --- encoding ---

// Encode serializes a frame into its wire representation. Encode never
// fails for a well-formed Frame value; malformed values (e.g. a label
// longer than 255 bytes) are a programmer error and panic, since they can
// only arise from a bug in frame construction, not from untrusted input.
func Encode(f Frame) []byte {
	switch v := f.(type) {
	case SwitchCommand:
		return encodeSwitchCommand(v)
	case TrainStopCommand:
		return encodeTrainStopCommand(v)
	case TrainPursueCommand:
		return encodeTrainPursueCommand(v)
	case SwitchStatus:
		return encodeSwitchStatus(v)
	case TrainStatus:
		return encodeTrainStatus(v)
	default:
		panic(fmt.Sprintf("wire: unknown frame type %T", f))
	}
}

func putSeq(buf []byte, seq uint32) {
	binary.BigEndian.PutUint32(buf, seq)
}

func putString(buf *[]byte, s string) {
	if len(s) > 255 {
		panic("wire: string exceeds 255 bytes: " + s)
	}
	*buf = append(*buf, byte(len(s)))
	*buf = append(*buf, s...)
}

func encodeSwitchCommand(v SwitchCommand) []byte {
	buf := make([]byte, 5, 5+1+len(v.Switch)+1)
	buf[0] = byte(kindSwitchCommand)
	putSeq(buf[1:5], v.SeqNum)
	putString(&buf, v.Switch)
	buf = append(buf, byte(v.Position))
	return buf
}

func encodeTrainStopCommand(v TrainStopCommand) []byte {
	buf := make([]byte, 5, 5+1+len(v.Train))
	buf[0] = byte(kindTrainStopCommand)
	putSeq(buf[1:5], v.SeqNum)
	putString(&buf, v.Train)
	return buf
}

func encodeTrainPursueCommand(v TrainPursueCommand) []byte {
	buf := make([]byte, 5, 5+1+len(v.Train)+2+len(v.Pattern))
	buf[0] = byte(kindTrainPursueCommand)
	putSeq(buf[1:5], v.SeqNum)
	putString(&buf, v.Train)
	buf = append(buf, byte(v.Op))
	if len(v.Pattern) > 255 {
		panic("wire: pattern too long")
	}
	buf = append(buf, byte(len(v.Pattern)))
	for _, c := range v.Pattern {
		buf = append(buf, byte(c))
	}
	return buf
}

func encodeSwitchStatus(v SwitchStatus) []byte {
	buf := make([]byte, 5, 32)
	buf[0] = byte(kindSwitchStatus)
	putSeq(buf[1:5], v.SeqNum)
	if len(v.Positions) > 255 {
		panic("wire: too many switches in one status frame")
	}
	buf = append(buf, byte(len(v.Positions)))
	for _, label := range sortedKeys(v.Positions) {
		putString(&buf, label)
		buf = append(buf, byte(v.Positions[label]))
	}
	return buf
}

func encodeTrainStatus(v TrainStatus) []byte {
	buf := make([]byte, 5, 5+1+len(v.Train)+2+len(v.Pattern))
	buf[0] = byte(kindTrainStatus)
	putSeq(buf[1:5], v.SeqNum)
	putString(&buf, v.Train)
	buf = append(buf, byte(v.Color), byte(v.Movement))
	if len(v.Pattern) > 255 {
		panic("wire: pattern too long")
	}
	buf = append(buf, byte(len(v.Pattern)))
	for _, c := range v.Pattern {
		buf = append(buf, byte(c))
	}
	return buf
}

// sortedKeys returns the map's keys in ascending order so encoding is
// deterministic (useful for tests and stable dedup).
func sortedKeys(m map[string]SwitchPosition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// --- decoding ---

// Decode recovers a strongly-typed frame from its wire representation.
// Malformed input is rejected silently: ok is false, never a panic.
func Decode(b []byte) (f Frame, ok bool) {
	defer func() {
		if recover() != nil {
			f, ok = nil, false
		}
	}()
	if len(b) < 5 {
		return nil, false
	}
	k := kind(b[0])
	seq := binary.BigEndian.Uint32(b[1:5])
	rest := b[5:]

	switch k {
	case kindSwitchCommand:
		label, rest, ok := takeString(rest)
		if !ok || len(rest) < 1 {
			return nil, false
		}
		return SwitchCommand{SeqNum: seq, Switch: label, Position: SwitchPosition(rest[0])}, true

	case kindTrainStopCommand:
		train, _, ok := takeString(rest)
		if !ok {
			return nil, false
		}
		return TrainStopCommand{SeqNum: seq, Train: train}, true

	case kindTrainPursueCommand:
		train, rest, ok := takeString(rest)
		if !ok || len(rest) < 2 {
			return nil, false
		}
		op := TrainOp(rest[0])
		n := int(rest[1])
		rest = rest[2:]
		if len(rest) < n {
			return nil, false
		}
		pattern := make(color.Pattern, n)
		for i := 0; i < n; i++ {
			pattern[i] = color.Color(rest[i])
		}
		return TrainPursueCommand{SeqNum: seq, Train: train, Op: op, Pattern: pattern}, true

	case kindSwitchStatus:
		if len(rest) < 1 {
			return nil, false
		}
		count := int(rest[0])
		rest = rest[1:]
		positions := make(map[string]SwitchPosition, count)
		for i := 0; i < count; i++ {
			var label string
			var ok bool
			label, rest, ok = takeString(rest)
			if !ok || len(rest) < 1 {
				return nil, false
			}
			positions[label] = SwitchPosition(rest[0])
			rest = rest[1:]
		}
		return SwitchStatus{SeqNum: seq, Positions: positions}, true

	case kindTrainStatus:
		train, rest, ok := takeString(rest)
		if !ok || len(rest) < 3 {
			return nil, false
		}
		c := color.Color(rest[0])
		mv := Movement(rest[1])
		n := int(rest[2])
		rest = rest[3:]
		if len(rest) < n {
			return nil, false
		}
		pattern := make(color.Pattern, n)
		for i := 0; i < n; i++ {
			pattern[i] = color.Color(rest[i])
		}
		return TrainStatus{SeqNum: seq, Train: train, Color: c, Movement: mv, Pattern: pattern}, true

	default:
		return nil, false
	}
}

func takeString(b []byte) (string, []byte, bool) {
	if len(b) < 1 {
		return "", b, false
	}
	n := int(b[0])
	b = b[1:]
	if len(b) < n {
		return "", b, false
	}
	return string(b[:n]), b[n:], true
}
