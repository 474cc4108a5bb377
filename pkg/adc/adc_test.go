package adc

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	s := NewSequence(1, 2, 3)
	require.NoError(t, s.Configure(config.Resolution{Bits: 10}))
	assert.Equal(t, 10, s.Resolution().Bits)

	assert.Equal(t, uint16(1), s.Read())
	assert.Equal(t, uint16(2), s.Read())
	assert.Equal(t, uint16(3), s.Read())
	assert.Equal(t, uint16(3), s.Read()) // repeats last
	assert.Equal(t, 3, s.Reads())

	empty := NewSequence()
	assert.Equal(t, uint16(0), empty.Read())
}

func TestSourceFunc(t *testing.T) {
	calls := 0
	src := SourceFunc(func() uint16 {
		calls++
		return 42
	})

	assert.NoError(t, src.Configure(config.Resolution{Bits: 12}))
	assert.Equal(t, uint16(42), src.Read())
	assert.Equal(t, 1, calls)
}

func TestMock_Range(t *testing.T) {
	tests := []struct {
		name     string
		waveform config.Waveform
		bits     int
	}{
		{"sine 12 bit", config.WaveformSine, 12},
		{"sine 10 bit", config.WaveformSine, 10},
		{"square 12 bit", config.WaveformSquare, 12},
		{"flat 12 bit", config.WaveformFlat, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Mock
			cfg.Waveform = tt.waveform
			cfg.Amplitude = 0.9 // overdrive both rails
			m := NewMock(&cfg, nil)
			require.NoError(t, m.Configure(config.Resolution{Bits: tt.bits}))

			bitDepth := uint16(1 << tt.bits)
			for n := 0; n < 2000; n++ {
				v := m.Read()
				assert.Less(t, v, bitDepth)
			}
		})
	}
}

func TestMock_FlatIsBias(t *testing.T) {
	cfg := config.Default().Mock
	cfg.Waveform = config.WaveformFlat
	cfg.Noise = 0
	m := NewMock(&cfg, nil)

	for n := 0; n < 10; n++ {
		assert.Equal(t, uint16(2048), m.Read())
	}
}

func TestMock_CopiesConfig(t *testing.T) {
	cfg := config.Default().Mock
	cfg.Waveform = config.WaveformFlat
	cfg.Noise = 0
	m := NewMock(&cfg, nil)

	cfg.Bias = 0.1
	cfg.Waveform = config.WaveformSquare
	assert.Equal(t, uint16(2048), m.Read())
}

func TestMock_SquareSwings(t *testing.T) {
	cfg := config.Default().Mock
	cfg.Waveform = config.WaveformSquare
	cfg.Noise = 0
	cfg.Amplitude = 0.25
	m := NewMock(&cfg, nil)

	seen := map[uint16]bool{}
	for n := 0; n < 1000; n++ {
		seen[m.Read()] = true
	}
	assert.True(t, seen[3072])
	assert.True(t, seen[1024])
	assert.Len(t, seen, 2)
}

func TestMock_PacesClock(t *testing.T) {
	cfg := config.Default().Mock
	clk := &clock.Fake{}
	m := NewMock(&cfg, clk)

	for n := 0; n < 100; n++ {
		m.Read()
	}
	assert.Equal(t, uint64(100*20), clk.Now)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantValue  uint16
		wantMarker bool
		wantErr    bool
	}{
		{name: "sample", line: "2048", wantValue: 2048},
		{name: "zero", line: "0", wantValue: 0},
		{name: "max", line: "4095", wantValue: 4095},
		{name: "frame marker", line: "#17", wantMarker: true},
		{name: "out of range", line: "4096", wantErr: true},
		{name: "not a number", line: "abc", wantErr: true},
		{name: "negative", line: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, marker, err := parseLine(tt.line, 4096)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, v)
			assert.Equal(t, tt.wantMarker, marker)
		})
	}
}

type nopCloser struct {
	io.Reader
}

func (nopCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopCloser) Close() error                { return nil }

func TestSerial_Stream(t *testing.T) {
	s := NewSerial("test", 0, 0, zerolog.Nop())
	s.readTimeout = 50 * time.Millisecond

	s.attach(nopCloser{strings.NewReader("#1\n2048\n\nbad\n5000\n100\n")})

	assert.Equal(t, uint16(2048), s.Read())
	assert.Equal(t, uint16(100), s.Read())
	assert.Equal(t, uint16(100), s.Read()) // stream ended, last value repeats

	assert.Eventually(t, func() bool { return !s.IsConnected() }, time.Second, time.Millisecond)
	assert.Equal(t, uint64(1), s.Frames())
	assert.NoError(t, s.Close())
}

func TestSerial_ReadWithoutConnection(t *testing.T) {
	s := NewSerial("test", 0, 0, zerolog.Nop())
	assert.False(t, s.IsConnected())
	assert.Equal(t, uint16(2048), s.Read())
	assert.NoError(t, s.Close())
}
