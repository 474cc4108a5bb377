package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goscope/pkg/config"
)

// overlayToggle binds a toolbar label to one overlay flag.
type overlayToggle struct {
	label string
	flag  func(o *config.OverlayConfig) *bool
}

var overlayToggles = []overlayToggle{
	{"Wave", func(o *config.OverlayConfig) *bool { return &o.Waveform }},
	{"Grid", func(o *config.OverlayConfig) *bool { return &o.Graticule }},
	{"HGrid", func(o *config.OverlayConfig) *bool { return &o.HorizontalGraticule }},
	{"Hz", func(o *config.OverlayConfig) *bool { return &o.RefreshRate }},
	{"ms", func(o *config.OverlayConfig) *bool { return &o.AcquisitionTime }},
	{"V/div", func(o *config.OverlayConfig) *bool { return &o.VoltsPerDivision }},
	{"ms/div", func(o *config.OverlayConfig) *bool { return &o.TimePerDivision }},
	{"pk-pk", func(o *config.OverlayConfig) *bool { return &o.PeakToPeakCounts }},
	{"Vpp", func(o *config.OverlayConfig) *bool { return &o.PeakToPeak }},
	{"Top", func(o *config.OverlayConfig) *bool { return &o.TopCursor }},
	{"Bottom", func(o *config.OverlayConfig) *bool { return &o.BottomCursor }},
	{"Sound", func(o *config.OverlayConfig) *bool { return &o.SoundIcon }},
	{"Over", func(o *config.OverlayConfig) *bool { return &o.OverdriveIcons }},
}

// createOverlayButtons creates one toggle button per overlay.
func createOverlayButtons(state *appState) fyne.CanvasObject {
	state.overlayBtns = make(map[string]*widget.Button, len(overlayToggles))
	box := container.NewHBox()

	for _, t := range overlayToggles {
		btn := widget.NewButton(t.label, func() {
			handleOverlayToggle(state, t)
		})
		state.overlayBtns[t.label] = btn
		box.Add(btn)
	}
	updateOverlayButtonStates(state)
	return box
}

// handleOverlayToggle flips one overlay and applies it to the running scope.
func handleOverlayToggle(state *appState, t overlayToggle) {
	flag := t.flag(&state.cfg.Overlays)
	*flag = !*flag

	if s := currentScope(state); s != nil {
		s.SetOverlays(state.cfg.Overlays)
	}
	updateOverlayButtonStates(state)
	saveConfig(state)
}

// updateOverlayButtonStates updates the visual state of all overlay buttons.
func updateOverlayButtonStates(state *appState) {
	for _, t := range overlayToggles {
		if btn, ok := state.overlayBtns[t.label]; ok {
			updateToggleButton(btn, *t.flag(&state.cfg.Overlays))
		}
	}
}
