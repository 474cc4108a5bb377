//go:build !tinygo

package adc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/goscope/pkg/config"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate of the firmware sample stream.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size of the decoded samples channel.
	DefaultBufferSize = 4096
	// DefaultReadTimeout bounds how long Read waits for the next streamed value.
	DefaultReadTimeout = 200 * time.Millisecond
)

var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial replays the raw sample stream printed by the firmware.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	log      zerolog.Logger

	conn      io.ReadWriteCloser
	samples   chan uint16
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	bitDepth    uint32
	last        uint16
	frames      uint64
	readTimeout time.Duration
}

var _ Source = (*Serial)(nil)

// NewSerial creates a serial source for the given port.
func NewSerial(port string, baudRate int, bufSize int, log zerolog.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bitDepth := config.Default().ADC.Resolution().BitDepth()
	return &Serial{
		port:        port,
		baudRate:    baudRate,
		bufSize:     bufSize,
		log:         log.With().Str("port", port).Logger(),
		samples:     make(chan uint16, bufSize),
		ctx:         ctx,
		cancel:      cancel,
		bitDepth:    bitDepth,
		last:        uint16(bitDepth / 2),
		readTimeout: DefaultReadTimeout,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts decoding samples.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return ErrAlreadyConnected
	}

	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.attach(port)
	return nil
}

// attach starts decoding from an already open stream.
func (s *Serial) attach(conn io.ReadWriteCloser) {
	s.conn = conn
	s.connected = true
	go s.readSamples(conn)
}

// Close closes the connection and stops decoding.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing serial port")
		}
		s.conn = nil
	}

	s.connected = false
	return nil
}

// IsConnected returns whether the port is open.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Frames returns the number of frame markers seen in the stream.
func (s *Serial) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Configure sets the resolution used to validate streamed values.
func (s *Serial) Configure(res config.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitDepth = res.BitDepth()
	return nil
}

// Read returns the next streamed value. When the stream stalls or is closed
// the previous value is repeated so acquisition never blocks indefinitely.
func (s *Serial) Read() uint16 {
	if !s.IsConnected() && len(s.samples) == 0 {
		return s.last
	}

	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()

	select {
	case v := <-s.samples:
		s.last = v
	case <-timer.C:
	case <-s.ctx.Done():
	}
	return s.last
}

// readSamples reads lines from the stream and decodes them into samples.
func (s *Serial) readSamples(conn io.Reader) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("sample reader stopped")
		}
	}()

	scanner := bufio.NewScanner(conn)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				s.log.Error().Err(err).Msg("reading serial port")
			}
			s.mu.Lock()
			s.connected = false
			s.mu.Unlock()
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.mu.RLock()
		bitDepth := s.bitDepth
		s.mu.RUnlock()

		value, marker, err := parseLine(line, bitDepth)
		if err != nil {
			s.log.Debug().Err(err).Str("line", line).Msg("skipping line")
			continue
		}
		if marker {
			s.mu.Lock()
			s.frames++
			s.mu.Unlock()
			continue
		}

		select {
		case s.samples <- value:
		case <-s.ctx.Done():
			return
		default:
			s.log.Warn().Msg("samples channel full, dropping sample")
		}
	}
}

// parseLine decodes one line of the firmware stream.
// Format: "#<frame>" marks the start of a frame, any other line is one raw sample.
func parseLine(line string, bitDepth uint32) (value uint16, marker bool, err error) {
	if strings.HasPrefix(line, "#") {
		return 0, true, nil
	}

	v, err := strconv.ParseUint(line, 10, 16)
	if err != nil {
		return 0, false, fmt.Errorf("invalid sample: %w", err)
	}
	if uint32(v) >= bitDepth {
		return 0, false, fmt.Errorf("sample out of range: %d (bit depth %d)", v, bitDepth)
	}
	return uint16(v), false, nil
}
