package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vsariola/loopdeck/cmd"
	"github.com/vsariola/loopdeck/config"
	"github.com/vsariola/loopdeck/decode"
	"github.com/vsariola/loopdeck/looper"
	"github.com/vsariola/loopdeck/store"
	"github.com/vsariola/loopdeck/version"
)

type options struct {
	bpm        float64
	click      bool
	midiDevice string
	configDir  string
	noAudio    bool
	logLevel   string
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "loopdeck [tracks...]",
	Short: "Multitrack looper with a metronome click",
	Long: `loopdeck plays WAV and MP3 tracks in sync, with a metronome click.
Keys and MIDI notes or controllers are bound to actions; see "loopdeck actions"
and "loopdeck bindings". Press Ctrl+C to quit.`,
	SilenceUsage: true,
	RunE:         runSession,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the MIDI input devices",
	RunE: func(c *cobra.Command, args []string) error {
		midiContext, err := cmd.NewMidiContext(nullHandler{})
		if err != nil {
			return err
		}
		defer midiContext.Close()
		for name := range midiContext.Inputs {
			fmt.Println(name)
		}
		return nil
	},
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the actions that can be bound to controls",
	Run: func(c *cobra.Command, args []string) {
		for k := range looper.ActionKinds {
			a := looper.MakeAction(k)
			name := k.String()
			if k.PerTrack() {
				a = looper.MakeTrackAction(k, 1)
				name += ":<track>"
			}
			fmt.Printf("%-28s %s\n", name, a.Label())
		}
	},
}

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "Show the current control bindings",
	RunE: func(c *cobra.Command, args []string) error {
		_, dir, err := loadPreferences()
		if err != nil {
			return err
		}
		st, err := store.NewDir(dir)
		if err != nil {
			return err
		}
		settings, err := looper.LoadSettings(st)
		if err != nil {
			logrus.WithError(err).Warn("using default bindings")
		}
		for a, s := range settings.ControlEditMap.Bindings {
			fmt.Printf("%-28s %s\n", a, s)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(c *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configDir, "config-dir", "", "directory of preferences.yml and settings.yml (default <user config dir>/loopdeck)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides preferences)")
	rootCmd.Flags().Float64Var(&opts.bpm, "bpm", 0, "click tempo in beats per minute (default from preferences)")
	rootCmd.Flags().BoolVar(&opts.click, "click", false, "start with the click enabled")
	rootCmd.Flags().StringVar(&opts.midiDevice, "midi-device", "", "open the MIDI input with this name or name prefix")
	rootCmd.Flags().BoolVar(&opts.noAudio, "no-audio", false, "render without an audio device")
	rootCmd.AddCommand(devicesCmd, actionsCmd, bindingsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadPreferences reads the preferences and configures logging from them.
func loadPreferences() (config.Preferences, string, error) {
	dir := opts.configDir
	if dir == "" {
		var err error
		if dir, err = config.DefaultDir(); err != nil {
			return config.Preferences{}, "", err
		}
	}
	prefs, ymlErr := config.Load(dir)
	if opts.logLevel != "" {
		prefs.LogLevel = opts.logLevel
	}
	level, err := logrus.ParseLevel(prefs.LogLevel)
	if err != nil {
		return prefs, dir, errors.Wrap(err, "invalid log level")
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if ymlErr != nil {
		logrus.WithError(ymlErr).Warn("ignoring preferences file")
	}
	if err := prefs.Validate(); err != nil {
		return prefs, dir, errors.Wrap(err, "invalid preferences")
	}
	return prefs, dir, nil
}

func runSession(c *cobra.Command, args []string) error {
	prefs, dir, err := loadPreferences()
	if err != nil {
		return err
	}
	log := logrus.StandardLogger()
	st, err := store.NewDir(dir)
	if err != nil {
		return err
	}

	broker := looper.NewBroker()
	renderer := looper.NewRenderer(broker, prefs.SampleRate)
	audioContext := cmd.NewAudioContext(opts.noAudio, prefs.SampleRate, prefs.BufferFrames, log)
	defer audioContext.Close()

	forward := &midiForwarder{}
	midiContext, err := cmd.NewMidiContext(forward)
	if err != nil {
		if opts.midiDevice != "" {
			return errors.Wrap(err, "MIDI requested but not available")
		}
		log.WithError(err).Warn("MIDI disabled")
		midiContext = looper.NullMIDIContext{}
	}
	defer midiContext.Close()

	model := looper.NewModel(renderer, renderer, st, looper.ModelOptions{
		TrackAdvance:   prefs.TrackAdvance,
		BPM:            prefs.DefaultBPM,
		TimeSignature:  looper.TimeSignature{Beats: prefs.TimeSignature.Beats, Unit: prefs.TimeSignature.Unit},
		ClickLookahead: prefs.ClickLookahead,
		MIDI:           midiContext,
		Logger:         log,
	})
	engine := looper.NewEngine(model, broker, looper.EngineOptions{
		PollInterval: prefs.PollInterval,
		Logger:       log,
	})
	forward.engine = engine

	if err := model.LoadSettings(); err != nil {
		return err
	}
	if opts.midiDevice != "" {
		if err := model.SetMidiDeviceName(opts.midiDevice); err != nil {
			return err
		}
	}
	if c.Flags().Changed("bpm") {
		if err := model.SetClickBPM(opts.bpm); err != nil {
			return err
		}
	}
	model.SetClickActive(opts.click)
	for _, path := range args {
		buffer, err := decode.File(path, prefs.SampleRate)
		if err != nil {
			return err
		}
		model.AddTrack(filepath.Base(path), buffer)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	audioCloser := audioContext.Play(renderer.Process)
	defer audioCloser.Close()

	restore, err := startKeyboard(ctx, cancel, engine, log)
	if err != nil {
		log.WithError(err).Warn("keyboard control disabled")
	} else {
		defer restore()
	}
	tmpl, err := parseStatusTemplate(prefs.StatusTemplate)
	if err != nil {
		return err
	}
	go printStatus(ctx, engine, tmpl, prefs.StatusInterval, os.Stdout)

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println()
	return nil
}

// midiForwarder passes MIDI events to the engine, which is created after the
// MIDI context.
type midiForwarder struct {
	engine *looper.Engine
}

func (f *midiForwarder) NoteOn(channel, note, velocity uint8) {
	if f.engine != nil {
		f.engine.NoteOn(channel, note, velocity)
	}
}

func (f *midiForwarder) ControlChange(channel, controller, value uint8) {
	if f.engine != nil {
		f.engine.ControlChange(channel, controller, value)
	}
}

type nullHandler struct{}

func (nullHandler) NoteOn(channel, note, velocity uint8)           {}
func (nullHandler) ControlChange(channel, controller, value uint8) {}
