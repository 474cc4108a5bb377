package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/config"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createTriggerTab(state),
		createDisplayTab(state),
		createAnalyzerTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// submit validates the edited configuration, saves it and restarts a running chain.
// On validation failure the previous configuration is restored.
func submit(state *appState, prev config.Config) {
	if err := state.cfg.Validate(); err != nil {
		*state.cfg = prev
		dialog.ShowError(err, state.window)
		return
	}
	saveConfig(state)

	if currentScope(state) == nil {
		return
	}
	stopChain(state)
	if err := startChain(state); err != nil {
		state.runBtn.SetIcon(theme.MediaPlayIcon())
		dialog.ShowError(err, state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := adc.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	} else {
		state.log.Warn().Err(err).Msg("failed to list serial ports")
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			submit(state, prev)
		},
	}

	return container.NewTabItem("Serial", form)
}

// createTriggerTab creates the Trigger configuration tab.
func createTriggerTab(state *appState) *container.TabItem {
	levelEntry := widget.NewEntry()
	levelEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Trigger.Level))

	toleranceEntry := widget.NewEntry()
	toleranceEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Trigger.Tolerance))

	confirmEntry := widget.NewEntry()
	confirmEntry.SetText(strconv.Itoa(state.cfg.Trigger.ConfirmSamples))

	attemptsEntry := widget.NewEntry()
	attemptsEntry.SetText(strconv.Itoa(state.cfg.Trigger.MaxAttempts))

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Trigger.Timeout.String())

	fallbackSelect := widget.NewSelect([]string{string(config.FallbackFreeRun), string(config.FallbackHold)}, nil)
	fallbackSelect.SetSelected(string(state.cfg.Trigger.Fallback))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Level (fraction of full scale)", Widget: levelEntry},
			{Text: "Tolerance", Widget: toleranceEntry},
			{Text: "Edge Confirm Samples", Widget: confirmEntry},
			{Text: "Max Attempts (0=unbounded)", Widget: attemptsEntry},
			{Text: "Timeout (0=unbounded)", Widget: timeoutEntry},
			{Text: "On Timeout", Widget: fallbackSelect},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if v, err := strconv.ParseFloat(levelEntry.Text, 64); err == nil {
				state.cfg.Trigger.Level = v
			}
			if v, err := strconv.ParseFloat(toleranceEntry.Text, 64); err == nil {
				state.cfg.Trigger.Tolerance = v
			}
			if v, err := strconv.Atoi(confirmEntry.Text); err == nil {
				state.cfg.Trigger.ConfirmSamples = v
			}
			if v, err := strconv.Atoi(attemptsEntry.Text); err == nil {
				state.cfg.Trigger.MaxAttempts = v
			}
			if v, err := time.ParseDuration(timeoutEntry.Text); err == nil {
				state.cfg.Trigger.Timeout = v
			}
			if fallbackSelect.Selected != "" {
				state.cfg.Trigger.Fallback = config.Fallback(fallbackSelect.Selected)
			}
			submit(state, prev)
		},
	}

	return container.NewTabItem("Trigger", form)
}

// createDisplayTab creates the Display configuration tab.
func createDisplayTab(state *appState) *container.TabItem {
	verticalScaleEntry := widget.NewEntry()
	verticalScaleEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Display.VerticalScale))

	verticalOffsetEntry := widget.NewEntry()
	verticalOffsetEntry.SetText(strconv.Itoa(state.cfg.Display.VerticalOffset))

	dottedBelowEntry := widget.NewEntry()
	dottedBelowEntry.SetText(strconv.Itoa(state.cfg.Display.DottedBelow))

	samplesEntry := widget.NewEntry()
	samplesEntry.SetText(strconv.Itoa(state.cfg.ADC.Samples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Vertical Scale", Widget: verticalScaleEntry},
			{Text: "Vertical Offset (px)", Widget: verticalOffsetEntry},
			{Text: "Dotted Cursor Below (px)", Widget: dottedBelowEntry},
			{Text: "Samples per Sweep", Widget: samplesEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if v, err := strconv.ParseFloat(verticalScaleEntry.Text, 64); err == nil {
				state.cfg.Display.VerticalScale = v
			}
			if v, err := strconv.Atoi(verticalOffsetEntry.Text); err == nil {
				state.cfg.Display.VerticalOffset = v
			}
			if v, err := strconv.Atoi(dottedBelowEntry.Text); err == nil {
				state.cfg.Display.DottedBelow = v
			}
			if v, err := strconv.Atoi(samplesEntry.Text); err == nil {
				state.cfg.ADC.Samples = v
			}
			submit(state, prev)
		},
	}

	return container.NewTabItem("Display", form)
}

// createAnalyzerTab creates the Analyzer calibration tab.
func createAnalyzerTab(state *appState) *container.TabItem {
	soundEntry := widget.NewEntry()
	soundEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Analyzer.SoundThreshold))

	positiveEntry := widget.NewEntry()
	positiveEntry.SetText(strconv.Itoa(state.cfg.Analyzer.PositiveRailMargin))

	negativeEntry := widget.NewEntry()
	negativeEntry.SetText(strconv.Itoa(state.cfg.Analyzer.NegativeRailLevel))

	gainEntry := widget.NewEntry()
	gainEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Analyzer.PeakToPeakGain))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sound Threshold (fraction)", Widget: soundEntry},
			{Text: "Positive Rail Margin (counts)", Widget: positiveEntry},
			{Text: "Negative Rail Level (counts)", Widget: negativeEntry},
			{Text: "Peak-to-Peak Gain (mV/count)", Widget: gainEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if v, err := strconv.ParseFloat(soundEntry.Text, 64); err == nil {
				state.cfg.Analyzer.SoundThreshold = v
			}
			if v, err := strconv.Atoi(positiveEntry.Text); err == nil {
				state.cfg.Analyzer.PositiveRailMargin = v
			}
			if v, err := strconv.Atoi(negativeEntry.Text); err == nil {
				state.cfg.Analyzer.NegativeRailLevel = v
			}
			if v, err := strconv.ParseFloat(gainEntry.Text, 64); err == nil {
				state.cfg.Analyzer.PeakToPeakGain = v
			}
			submit(state, prev)
		},
	}

	return container.NewTabItem("Analyzer", form)
}

// createMockTab creates the synthetic signal configuration tab.
func createMockTab(state *appState) *container.TabItem {
	waveformSelect := widget.NewSelect([]string{
		string(config.WaveformSine), string(config.WaveformSquare), string(config.WaveformFlat),
	}, nil)
	waveformSelect.SetSelected(string(state.cfg.Mock.Waveform))

	frequencyEntry := widget.NewEntry()
	frequencyEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.Frequency))

	amplitudeEntry := widget.NewEntry()
	amplitudeEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Amplitude))

	biasEntry := widget.NewEntry()
	biasEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Bias))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.4f", state.cfg.Mock.Noise))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.SamplePeriod.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Waveform", Widget: waveformSelect},
			{Text: "Frequency (Hz)", Widget: frequencyEntry},
			{Text: "Amplitude (fraction)", Widget: amplitudeEntry},
			{Text: "Bias (fraction)", Widget: biasEntry},
			{Text: "Noise (fraction)", Widget: noiseEntry},
			{Text: "Sample Period", Widget: periodEntry},
		},
		OnSubmit: func() {
			prev := *state.cfg
			if waveformSelect.Selected != "" {
				state.cfg.Mock.Waveform = config.Waveform(waveformSelect.Selected)
			}
			if v, err := strconv.ParseFloat(frequencyEntry.Text, 64); err == nil {
				state.cfg.Mock.Frequency = v
			}
			if v, err := strconv.ParseFloat(amplitudeEntry.Text, 64); err == nil {
				state.cfg.Mock.Amplitude = v
			}
			if v, err := strconv.ParseFloat(biasEntry.Text, 64); err == nil {
				state.cfg.Mock.Bias = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Mock.Noise = v
			}
			if v, err := time.ParseDuration(periodEntry.Text); err == nil {
				state.cfg.Mock.SamplePeriod = v
			}
			submit(state, prev)
		},
	}

	return container.NewTabItem("Mock", form)
}
