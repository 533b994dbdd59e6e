package location

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// SensorProvider reads coordinates from a GPS receiver attached to a serial
// port, using the first valid GGA sentence it sees.
type SensorProvider struct {
	port     string
	baudRate int
}

// NewSensorProvider returns a provider for the given serial port and baud rate.
func NewSensorProvider(port string, baudRate int) *SensorProvider {
	return &SensorProvider{
		port:     port,
		baudRate: baudRate,
	}
}

// GetLocation opens the port and scans NMEA output until a GGA sentence with
// a fix arrives or the context expires.
func (s *SensorProvider) GetLocation(ctx context.Context) (Coordinate, error) {
	cfg := &serial.Config{Name: s.port, Baud: s.baudRate}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return Coordinate{}, err
	}
	defer port.Close()

	type fix struct {
		coord Coordinate
		err   error
	}
	result := make(chan fix, 1)

	// The serial package has no deadline support, so the scan runs in its
	// own goroutine and the context decides how long we wait for it.
	go func() {
		scanner := bufio.NewScanner(port)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "$GPGGA") {
				continue
			}
			sentence, err := nmea.Parse(line)
			if err != nil {
				continue
			}
			gga, ok := sentence.(nmea.GGA)
			if !ok || gga.FixQuality == nmea.Invalid {
				continue
			}
			result <- fix{coord: Coordinate{Latitude: gga.Latitude, Longitude: gga.Longitude}}
			return
		}
		if err := scanner.Err(); err != nil {
			result <- fix{err: err}
			return
		}
		result <- fix{err: errors.New("no valid GPS fix in sensor output")}
	}()

	select {
	case f := <-result:
		return f.coord, f.err
	case <-ctx.Done():
		return Coordinate{}, ctx.Err()
	}
}
