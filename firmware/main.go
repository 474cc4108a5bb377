//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"machine"
	"time"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"

	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/display"
	"github.com/itohio/goscope/pkg/sample"
	"github.com/itohio/goscope/pkg/scope"
)

func main() {
	cfg := config.Default()
	cfg.ADC.ResolutionBits = ADC_RESOLUTION
	cfg.ADC.ReferenceMV = ADC_REFERENCE_MV
	cfg.Display.Width = DISPLAY_WIDTH - 1
	cfg.Display.Height = DISPLAY_HEIGHT - 1
	cfg.Display.IconBottomY = DISPLAY_HEIGHT - 1
	cfg.Display.RefreshX = REFRESH_TEXT_X
	if err := cfg.Validate(); err != nil {
		println("invalid config:", err.Error())
		return
	}

	machine.InitADC()
	PIN_SCOPE.Configure(machine.PinConfig{Mode: machine.PinInput})
	src := newADCSource(PIN_SCOPE)

	machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	// the panel needs time after a cold boot
	time.Sleep(100 * time.Millisecond)
	panel := ssd1306.NewI2C(machine.I2C0)
	panel.Configure(ssd1306.Config{
		Width:    DISPLAY_WIDTH,
		Height:   DISPLAY_HEIGHT,
		Address:  DISPLAY_ADDRESS,
		VccState: ssd1306.SWITCHCAPVCC,
	})
	panel.ClearDisplay()

	fb := display.NewFramebuffer(DISPLAY_WIDTH, DISPLAY_HEIGHT, panel)
	// the default font crowds a 128 px row
	fb.SetFont(&tinyfont.Picopixel)
	s := scope.New(cfg, src, clock.NewSystem(), fb)

	print("Detecting oscilloscope... ")
	r, err := s.Begin()
	if err != nil {
		println("FAILED:", err.Error())
	}
	print("Avg Bias ")
	print(int(r.Average))
	if r.Ready {
		println(" FOUND.")
	} else {
		println(" NOT FOUND.")
	}

	stream := sample.NewFrame(cfg.ADC.Samples)
	s.OnFrame(func(ev scope.Event) {
		if ev.Frame%STREAM_EVERY != 0 {
			return
		}
		streamFrame(s, ev, stream)
	})

	for {
		if err := s.Run(context.Background()); err != nil {
			println("frame failed:", err.Error())
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// streamFrame prints the last good sweep for the host viewer.
func streamFrame(s *scope.Scope, ev scope.Event, f *sample.Frame) {
	s.Latest(f)

	print("#")
	print(ev.Frame)
	print("\n")
	for _, v := range f.Samples {
		print(v)
		print("\n")
	}
}
