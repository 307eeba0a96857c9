package looper

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck"
	"gopkg.in/yaml.v3"
)

type (
	// Settings is the persisted part of the looper state. It is stored as a
	// whole under SettingsKey every time any of it changes.
	Settings struct {
		TrackPanning   float64        `yaml:"trackPanning"`
		ClickPanning   float64        `yaml:"clickPanning"`
		MidiDeviceName string         `yaml:"midiDeviceName"`
		ClickGainValue float64        `yaml:"clickGainValue"`
		TrackGainValue float64        `yaml:"trackGainValue"`
		ControlEditMap ControlEditMap `yaml:"controlEditMap"`
	}

	// ControlEditMap maps actions to the signals that trigger them. It keeps
	// insertion order: looking up a signal returns the first bound action,
	// and rebinding an action keeps its place.
	ControlEditMap struct {
		entries []ControlBinding
	}

	ControlBinding struct {
		Action Action
		Signal loopdeck.Signal
	}

	// Store is an opaque key-value store for the settings blob.
	Store interface {
		Get(key string) (value []byte, ok bool, err error)
		Set(key string, value []byte) error
	}

	defaultControl struct {
		Action string
		Type   loopdeck.SignalType
		Value  string
	}
)

const SettingsKey = "settings"

//go:embed controls.yml
var defaultControlsYaml []byte

var defaultControlEditMap = func() ControlEditMap {
	var controls []defaultControl
	dec := yaml.NewDecoder(bytes.NewReader(defaultControlsYaml))
	dec.KnownFields(true)
	if err := dec.Decode(&controls); err != nil {
		panic(fmt.Errorf("failed to unmarshal default controls: %w", err))
	}
	var ret ControlEditMap
	for _, c := range controls {
		a, err := ParseAction(c.Action)
		if err != nil {
			panic(fmt.Errorf("default controls: %w", err))
		}
		ret.Set(a, loopdeck.Signal{Type: c.Type, Value: c.Value})
	}
	return ret
}()

// DefaultSettings returns the settings used for anything missing from the
// store.
func DefaultSettings() Settings {
	return Settings{
		ClickGainValue: 1,
		TrackGainValue: 1,
		ControlEditMap: defaultControlEditMap.Copy(),
	}
}

// LoadSettings reads the settings from the store, merged over the defaults.
// Whatever shape is stored is accepted: missing fields keep their defaults.
// If the stored blob cannot be decoded, the defaults are returned together
// with the error.
func LoadSettings(s Store) (Settings, error) {
	ret := DefaultSettings()
	data, ok, err := s.Get(SettingsKey)
	if err != nil {
		return ret, errors.Wrap(err, "reading settings")
	}
	if !ok || len(data) == 0 {
		return ret, nil
	}
	merged := DefaultSettings()
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return ret, errors.Wrap(err, "decoding settings")
	}
	return merged, nil
}

// SaveSettings writes the whole settings blob to the store.
func SaveSettings(s Store, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	if err := s.Set(SettingsKey, data); err != nil {
		return errors.Wrap(err, "writing settings")
	}
	return nil
}

func (c ControlEditMap) Len() int { return len(c.entries) }

// Set binds the action to the signal. An action already bound keeps its
// place in the order.
func (c *ControlEditMap) Set(a Action, s loopdeck.Signal) {
	for i := range c.entries {
		if c.entries[i].Action == a {
			c.entries[i].Signal = s
			return
		}
	}
	c.entries = append(c.entries, ControlBinding{Action: a, Signal: s})
}

func (c ControlEditMap) Get(a Action) (loopdeck.Signal, bool) {
	for _, e := range c.entries {
		if e.Action == a {
			return e.Signal, true
		}
	}
	return loopdeck.Signal{}, false
}

func (c *ControlEditMap) Delete(a Action) {
	for i, e := range c.entries {
		if e.Action == a {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Lookup returns the first action, in insertion order, bound to a signal
// equal to s.
func (c ControlEditMap) Lookup(s loopdeck.Signal) (Action, bool) {
	for _, e := range c.entries {
		if e.Signal == s {
			return e.Action, true
		}
	}
	return Action{}, false
}

// Bindings can be iterated to get all the bindings in order.
func (c ControlEditMap) Bindings(yield func(Action, loopdeck.Signal) bool) {
	for _, e := range c.entries {
		if !yield(e.Action, e.Signal) {
			return
		}
	}
}

func (c ControlEditMap) Copy() ControlEditMap {
	return ControlEditMap{entries: append([]ControlBinding(nil), c.entries...)}
}

// MarshalYAML encodes the map as a YAML mapping in binding order.
func (c ControlEditMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range c.entries {
		var value yaml.Node
		if err := value.Encode(e.Signal); err != nil {
			return nil, err
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Action.String()}
		node.Content = append(node.Content, key, &value)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping, keeping its order. Bindings naming
// unknown actions are kept, so that triggering them can report the stale
// name; entries that do not decode to a valid signal are dropped.
func (c *ControlEditMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: controlEditMap must be a mapping", node.Line)
	}
	c.entries = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		a, _ := ParseAction(node.Content[i].Value)
		var s loopdeck.Signal
		if err := node.Content[i+1].Decode(&s); err != nil || !s.Type.Valid() {
			continue
		}
		c.Set(a, s)
	}
	return nil
}
