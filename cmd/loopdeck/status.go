package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck/looper"
)

type (
	// status is the data given to the status line template.
	status struct {
		State    string
		Position float64
		Beats    string
		BPM      float64
		Click    bool
		EditMode bool
		Selected string
		Dialog   string
		Level    looper.Volume
		Tracks   []trackStatus
	}

	trackStatus struct {
		Number int
		Name   string
		Active bool
		Solo   bool
		Gain   float64
		Cursor float64
		Label  string
	}
)

func parseStatusTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("status").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parsing status template")
	}
	return tmpl, nil
}

func snapshot(m *looper.Model) status {
	s := status{
		State:    m.PlayState().String(),
		Position: m.PlayPosition(),
		Beats:    m.ClickBeats().String(),
		BPM:      m.Click().BPM(),
		Click:    m.Click().Active,
		EditMode: m.EditMode(),
		Dialog:   m.Dialog().String(),
		Level:    m.Level(),
	}
	if sel := m.ControlEdit().Selected; sel != nil {
		s.Selected = sel.Label()
	}
	for i, t := range m.Tracks() {
		ts := trackStatus{
			Number: i + 1,
			Name:   t.Name,
			Active: t.Active,
			Solo:   m.SoloTrack() == t,
			Gain:   m.Gain(t),
			Cursor: t.Cursor(),
		}
		var marks string
		if !t.Active {
			marks += "M"
		}
		if ts.Solo {
			marks += "S"
		}
		ts.Label = fmt.Sprintf("%d:%s", ts.Number, t.Name)
		if marks != "" {
			ts.Label += "[" + marks + "]"
		}
		s.Tracks = append(s.Tracks, ts)
	}
	return s
}

// printStatus redraws the status line every interval and prints alerts on
// their own lines, until ctx is done or the engine finishes.
func printStatus(ctx context.Context, engine *looper.Engine, tmpl *template.Template, interval time.Duration, w io.Writer) {
	events, cancel := engine.Subscribe(64)
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var line strings.Builder
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if a, ok := e.Data.(looper.Alert); ok {
				fmt.Fprintf(w, "\r\033[K%s: %s\r\n", a.Priority, a.Message)
			}
		case <-ticker.C:
			var s status
			if err := engine.Sync(func(m *looper.Model) error {
				s = snapshot(m)
				return nil
			}); err != nil {
				return
			}
			line.Reset()
			if err := tmpl.Execute(&line, s); err != nil {
				fmt.Fprintf(w, "\r\033[Kstatus template: %v\r\n", err)
				return
			}
			fmt.Fprintf(w, "\r\033[K%s", line.String())
		}
	}
}
