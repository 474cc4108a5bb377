package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/display"
	"github.com/itohio/goscope/pkg/scope"
	"github.com/itohio/goscope/pkg/view"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use the synthetic signal generator instead of a serial port")
		forceFlag  = flag.Bool("force", false, "Render even when the front end is not detected")
		debugFlag  = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *debugFlag {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Str("file", *configFlag).Msg("failed to load configuration")
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.itohio.goscope")

	window := application.NewWindow("Oscilloscope")
	window.Resize(fyne.NewSize(1100, 360))
	window.CenterOnScreen()

	state := &appState{
		cfg:      cfg,
		cfgPath:  *configFlag,
		log:      log,
		window:   window,
		useMock:  *mockFlag,
		force:    *forceFlag,
		throttle: newFrameThrottle(updateInterval),
	}

	toolbar := createToolbar(state)

	state.scopeWidget = view.New(cfg.Display.Width+1, cfg.Display.Height+1)

	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		state.scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		stopChain(state)
	})
	window.ShowAndRun()
}

// acquisitionChain tracks a running source and frame loop.
type acquisitionChain struct {
	source adc.Source
	scope  *scope.Scope
	fb     *display.Framebuffer
	cancel context.CancelFunc
	done   chan struct{} // Closed when the frame loop exits
}

// appState holds the application state.
type appState struct {
	cfg     *config.Config
	cfgPath string
	log     zerolog.Logger

	window      fyne.Window
	scopeWidget *view.ScopeWidget
	runBtn      *widget.Button
	triggerBtn  *widget.Button
	edgeSelect  *widget.Select
	overlayBtns map[string]*widget.Button

	useMock bool
	force   bool

	mu    sync.Mutex // Guards chain
	chain *acquisitionChain

	throttle *frameThrottle
}

// createToolbar creates the toolbar: run/stop, settings, trigger controls and overlay toggles.
func createToolbar(state *appState) fyne.CanvasObject {
	runBtn := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		handleRun(state)
	})
	state.runBtn = runBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	triggerBtn := widget.NewButton("Trig", func() {
		handleTriggerToggle(state)
	})
	state.triggerBtn = triggerBtn
	updateToggleButton(triggerBtn, state.cfg.Trigger.Enabled)

	edgeSelect := widget.NewSelect(
		[]string{string(config.EdgeRising), string(config.EdgeFalling), string(config.EdgeEither)},
		func(selected string) {
			handleEdgeSelect(state, config.Edge(selected))
		},
	)
	edgeSelect.SetSelected(string(state.cfg.Trigger.Edge))
	state.edgeSelect = edgeSelect

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(runBtn, settingsBtn, triggerBtn, edgeSelect),
		createOverlayButtons(state),
		nil,
	)
}

// newSource creates the configured ADC source.
func newSource(state *appState, clk clock.Clock) (adc.Source, error) {
	if state.useMock {
		state.log.Info().Str("waveform", string(state.cfg.Mock.Waveform)).Float64("frequency", state.cfg.Mock.Frequency).Msg("using synthetic signal")
		return adc.NewMock(&state.cfg.Mock, clk), nil
	}

	src := adc.NewSerial(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, adc.DefaultBufferSize, state.log)
	if err := src.Connect(); err != nil {
		return nil, err
	}
	state.log.Info().Str("port", state.cfg.Serial.Port).Msg("connected")
	return src, nil
}

// handleRun starts or stops acquisition.
func handleRun(state *appState) {
	state.mu.Lock()
	running := state.chain != nil
	state.mu.Unlock()

	if running {
		stopChain(state)
		state.runBtn.SetIcon(theme.MediaPlayIcon())
		return
	}

	if err := startChain(state); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	state.runBtn.SetIcon(theme.MediaStopIcon())
}

// startChain builds the scope pipeline and runs it in a goroutine.
func startChain(state *appState) error {
	if err := state.cfg.Validate(); err != nil {
		return err
	}

	clk := clock.NewSystem()
	src, err := newSource(state, clk)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	fb := display.NewFramebuffer(int16(state.cfg.Display.Width+1), int16(state.cfg.Display.Height+1), nil)
	s := scope.New(state.cfg, src, clk, fb)

	r, err := s.Begin()
	if err != nil {
		closeSource(src)
		return err
	}
	state.log.Info().Bool("ready", r.Ready).Float32("average", r.Average).Bool("bias", r.BiasFound).Bool("signal", r.SignalFound).Msg("front end detection")
	if !r.Ready && state.force {
		state.log.Warn().Msg("front end not detected, rendering anyway")
		s.SetReady(true)
	}

	s.OnFrame(func(ev scope.Event) {
		onFrame(state, fb, ev)
	})

	ctx, cancel := context.WithCancel(context.Background())
	chain := &acquisitionChain{
		source: src,
		scope:  s,
		fb:     fb,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(chain.done)
		if err := s.Run(ctx); err != nil {
			state.log.Error().Err(err).Msg("acquisition stopped")
			fyne.Do(func() {
				dialog.ShowError(err, state.window)
			})
		}
	}()

	state.mu.Lock()
	state.chain = chain
	state.mu.Unlock()
	return nil
}

// stopChain cancels the frame loop and waits for it to exit.
func stopChain(state *appState) {
	state.mu.Lock()
	chain := state.chain
	state.chain = nil
	state.mu.Unlock()

	if chain == nil {
		return
	}
	chain.cancel()
	closeSource(chain.source)
	<-chain.done

	sampler := chain.scope.Sampler()
	state.log.Info().Uint64("frames", chain.scope.Frames()).Uint64("fallbacks", sampler.Fallbacks()).Msg("acquisition stopped")
}

// closeSource closes sources that hold a connection.
func closeSource(src adc.Source) {
	if c, ok := src.(interface{ Close() error }); ok {
		c.Close()
	}
}

// currentScope returns the running scope, or nil.
func currentScope(state *appState) *scope.Scope {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.chain == nil {
		return nil
	}
	return state.chain.scope
}

// onFrame runs on the frame loop goroutine.
func onFrame(state *appState, fb *display.Framebuffer, ev scope.Event) {
	if ev.Held {
		state.log.Debug().Uint64("frame", ev.Frame).Int("attempts", ev.Attempts).Msg("trigger timeout, holding last frame")
	}
	if !ev.Rendered || !state.throttle.Allow(time.Now()) {
		return
	}

	img := fb.Image()
	m := ev.Measurements
	UpdateWidgetOnMainThread(func() {
		state.scopeWidget.Update(img, m)
	})
}

// saveConfig persists the configuration and reports failures.
func saveConfig(state *appState) {
	if err := state.cfg.Save(state.cfgPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// handleTriggerToggle switches between triggered and free-running acquisition.
func handleTriggerToggle(state *appState) {
	state.cfg.Trigger.Enabled = !state.cfg.Trigger.Enabled
	updateToggleButton(state.triggerBtn, state.cfg.Trigger.Enabled)
	applyTrigger(state)
}

// handleEdgeSelect changes the trigger edge.
func handleEdgeSelect(state *appState, edge config.Edge) {
	if state.cfg.Trigger.Edge == edge {
		return
	}
	state.cfg.Trigger.Edge = edge
	applyTrigger(state)
}

// applyTrigger pushes the trigger configuration to the running scope and saves it.
func applyTrigger(state *appState) {
	if s := currentScope(state); s != nil {
		s.SetTrigger(state.cfg.Trigger)
	}
	saveConfig(state)
}

// updateToggleButton updates a toggle button's visual state.
func updateToggleButton(btn *widget.Button, isOn bool) {
	if isOn {
		btn.Importance = widget.HighImportance
	} else {
		btn.Importance = widget.MediumImportance
	}
	btn.Refresh()
}
