package looper

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// ActionKind enumerates everything a control input can be bound to.
	ActionKind int

	// Action is a bindable user action. Per-track kinds carry the 1-based
	// track number. Actions parsed from names that no kind matches keep the
	// name and have kind ActionUnknown; performing them fails.
	Action struct {
		Kind  ActionKind
		Track int

		name string
	}
)

const (
	ActionUnknown ActionKind = iota
	ActionTogglePlayPause
	ActionStop
	ActionRewind
	ActionToggleClick
	ActionClickBPMUp
	ActionClickBPMDown
	ActionToggleSettingsDialog
	ActionToggleAboutDialog
	ActionToggleControlEditMode
	ActionSelectNextAction
	ActionSelectPreviousAction
	ActionClearControlEditSelected
	ActionToggleTrackActive
	ActionToggleSoloTrack
	numActionKinds
)

var ErrUnknownAction = errors.New("unknown action")

var actionNames = [numActionKinds]string{
	ActionUnknown:                  "",
	ActionTogglePlayPause:          "togglePlayPause",
	ActionStop:                     "stop",
	ActionRewind:                   "rewind",
	ActionToggleClick:              "toggleClick",
	ActionClickBPMUp:               "clickBpmUp",
	ActionClickBPMDown:             "clickBpmDown",
	ActionToggleSettingsDialog:     "toggleSettingsDialog",
	ActionToggleAboutDialog:        "toggleAboutDialog",
	ActionToggleControlEditMode:    "toggleControlEditMode",
	ActionSelectNextAction:         "selectNextAction",
	ActionSelectPreviousAction:     "selectPreviousAction",
	ActionClearControlEditSelected: "clearControlEditSelected",
	ActionToggleTrackActive:        "toggleTrackActive",
	ActionToggleSoloTrack:          "toggleSoloTrack",
}

// actionTable is the closed dispatch table from action kinds to model
// operations.
var actionTable = [numActionKinds]func(m *Model, a Action) error{
	ActionUnknown: func(m *Model, a Action) error {
		return errors.Wrapf(ErrUnknownAction, "%q", a.name)
	},
	ActionTogglePlayPause: func(m *Model, a Action) error {
		m.PlayPause()
		return nil
	},
	ActionStop: func(m *Model, a Action) error {
		m.Stop()
		return nil
	},
	ActionRewind: func(m *Model, a Action) error {
		m.PlayAt(0)
		return nil
	},
	ActionToggleClick: func(m *Model, a Action) error {
		m.ToggleClickActive()
		return nil
	},
	ActionClickBPMUp: func(m *Model, a Action) error {
		return m.SetClickBPM(m.click.BPM() + 1)
	},
	ActionClickBPMDown: func(m *Model, a Action) error {
		return m.SetClickBPM(max(m.click.BPM()-1, minBPM))
	},
	ActionToggleSettingsDialog: func(m *Model, a Action) error {
		m.ToggleSettingsDialog()
		return nil
	},
	ActionToggleAboutDialog: func(m *Model, a Action) error {
		m.ToggleAboutDialog()
		return nil
	},
	ActionToggleControlEditMode: func(m *Model, a Action) error {
		return m.ToggleControlEditMode()
	},
	ActionSelectNextAction: func(m *Model, a Action) error {
		m.SelectNextAction()
		return nil
	},
	ActionSelectPreviousAction: func(m *Model, a Action) error {
		m.SelectPreviousAction()
		return nil
	},
	ActionClearControlEditSelected: func(m *Model, a Action) error {
		m.ClearControlEditSelected()
		return nil
	},
	ActionToggleTrackActive: func(m *Model, a Action) error {
		t, err := m.actionTrack(a)
		if err != nil {
			return err
		}
		m.SetTrackActive(t, !t.Active)
		return nil
	},
	ActionToggleSoloTrack: func(m *Model, a Action) error {
		t, err := m.actionTrack(a)
		if err != nil {
			return err
		}
		if m.solo == t {
			t = nil
		}
		m.SetSoloTrack(t)
		return nil
	},
}

// MakeAction returns the action of a kind that takes no track.
func MakeAction(kind ActionKind) Action { return Action{Kind: kind} }

// MakeTrackAction returns a per-track action; track is 1-based.
func MakeTrackAction(kind ActionKind, track int) Action {
	return Action{Kind: kind, Track: track}
}

// PerTrack reports whether actions of this kind need a track number.
func (k ActionKind) PerTrack() bool {
	return k == ActionToggleTrackActive || k == ActionToggleSoloTrack
}

func (k ActionKind) String() string {
	if k < 0 || k >= numActionKinds {
		return ""
	}
	return actionNames[k]
}

// ParseAction parses the text form of an action, e.g. "stop" or
// "toggleSoloTrack:2". Unrecognized names return an ActionUnknown action
// carrying the name, together with an ErrUnknownAction error.
func ParseAction(s string) (Action, error) {
	name, num, hasNum := strings.Cut(s, ":")
	for k := ActionKind(1); k < numActionKinds; k++ {
		if actionNames[k] != name || k.PerTrack() != hasNum {
			continue
		}
		if !hasNum {
			return Action{Kind: k}, nil
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 {
			break
		}
		return Action{Kind: k, Track: n}, nil
	}
	return Action{Kind: ActionUnknown, name: s}, errors.Wrapf(ErrUnknownAction, "%q", s)
}

func (a Action) String() string {
	if a.Kind == ActionUnknown || a.Kind >= numActionKinds {
		return a.name
	}
	if a.Kind.PerTrack() {
		return actionNames[a.Kind] + ":" + strconv.Itoa(a.Track)
	}
	return actionNames[a.Kind]
}

// Label returns a human readable name of the action, e.g. "Toggle Solo
// Track 2".
func (a Action) Label() string {
	var words []string
	name := a.Kind.String()
	if a.Kind == ActionUnknown {
		name = a.name
	}
	start := 0
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			words = append(words, name[start:i])
			start = i
		}
	}
	words = append(words, name[start:])
	if a.Kind.PerTrack() {
		words = append(words, strconv.Itoa(a.Track))
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// ActionKinds can be iterated to get all the known action kinds.
func ActionKinds(yield func(ActionKind) bool) {
	for k := ActionKind(1); k < numActionKinds; k++ {
		if !yield(k) {
			return
		}
	}
}

// Do performs the action.
func (m *Model) Do(a Action) error {
	if a.Kind < 0 || a.Kind >= numActionKinds {
		return errors.Wrapf(ErrUnknownAction, "kind %d", a.Kind)
	}
	return actionTable[a.Kind](m, a)
}

// Actions lists every concrete action available with the current tracks.
func (m *Model) Actions() []Action {
	var ret []Action
	for k := ActionKind(1); k < numActionKinds; k++ {
		if !k.PerTrack() {
			ret = append(ret, Action{Kind: k})
			continue
		}
		for i := range m.tracks {
			ret = append(ret, Action{Kind: k, Track: i + 1})
		}
	}
	return ret
}

func (m *Model) actionTrack(a Action) (*Track, error) {
	if a.Track < 1 || a.Track > len(m.tracks) {
		return nil, errors.Wrapf(ErrUnknownAction, "%q: no track %d", a.String(), a.Track)
	}
	return m.tracks[a.Track-1], nil
}
