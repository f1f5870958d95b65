package indicator

import (
	"context"
	"errors"
	"fmt"

	"tinygo.org/x/bluetooth"

	"github.com/user/cibulb/pkg/logger"
)

// DefaultName is the advertised name of the bulb.
const DefaultName = "icolorlive"

// GATT identifiers of the bulb.
const (
	ServiceUUID = "f000ffa0-0451-4000-b000-000000000000"
	ModeUUID    = "f000ffa3-0451-4000-b000-000000000000"
	ColorUUID   = "f000ffa4-0451-4000-b000-000000000000"
)

// Mode selects between the RGB and white LEDs.
type Mode string

const (
	ModeColor Mode = "MC"
	ModeWhite Mode = "MW"
)

// ErrCharacteristic is returned when the bulb lacks an expected characteristic.
var ErrCharacteristic = errors.New("characteristic not found")

// Writer is a GATT characteristic that accepts unacknowledged writes.
type Writer interface {
	WriteWithoutResponse(p []byte) (int, error)
}

// Bulb is a connected light.
type Bulb struct {
	mode       Writer
	color      Writer
	disconnect func() error
}

// NewBulb wraps already discovered characteristics.
func NewBulb(mode, color Writer, disconnect func() error) *Bulb {
	return &Bulb{mode: mode, color: color, disconnect: disconnect}
}

// SetColor writes the color's RGB triple.
func (b *Bulb) SetColor(c Color) error {
	v := c.RGB()
	if _, err := b.color.WriteWithoutResponse(v[:]); err != nil {
		return fmt.Errorf("write color %s: %w", c, err)
	}
	return nil
}

// SetMode switches the bulb between color and white output.
func (b *Bulb) SetMode(m Mode) error {
	if _, err := b.mode.WriteWithoutResponse([]byte(m)); err != nil {
		return fmt.Errorf("write mode %s: %w", m, err)
	}
	return nil
}

// Disconnect releases the connection. It is safe to call more than once.
func (b *Bulb) Disconnect() error {
	if b.disconnect == nil {
		return nil
	}
	d := b.disconnect
	b.disconnect = nil
	return d()
}

// Connect scans for a device advertising name, connects to it and discovers
// the light service. The caller must Disconnect.
func Connect(ctx context.Context, adapter *bluetooth.Adapter, name string) (*Bulb, error) {
	if name == "" {
		name = DefaultName
	}

	service, err := bluetooth.ParseUUID(ServiceUUID)
	if err != nil {
		return nil, err
	}
	modeID, err := bluetooth.ParseUUID(ModeUUID)
	if err != nil {
		return nil, err
	}
	colorID, err := bluetooth.ParseUUID(ColorUUID)
	if err != nil {
		return nil, err
	}

	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}

	result, err := scan(ctx, adapter, name)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("name", name).Str("address", result.Address.String()).Msg("Found light")

	dev, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	disconnect := dev.Disconnect

	services, err := dev.DiscoverServices([]bluetooth.UUID{service})
	if err != nil || len(services) == 0 {
		disconnect()
		return nil, fmt.Errorf("discover service %s: %w", ServiceUUID, errors.Join(ErrCharacteristic, err))
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{modeID, colorID})
	if err != nil {
		disconnect()
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}

	var mode, color Writer
	for i := range chars {
		switch chars[i].UUID() {
		case modeID:
			mode = &chars[i]
		case colorID:
			color = &chars[i]
		}
	}
	if mode == nil || color == nil {
		disconnect()
		return nil, ErrCharacteristic
	}

	return NewBulb(mode, color, disconnect), nil
}

// scan blocks until a device advertising name is seen or ctx is done.
func scan(ctx context.Context, adapter *bluetooth.Adapter, name string) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	done := make(chan error, 1)

	go func() {
		done <- adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			if r.LocalName() != name {
				return
			}
			select {
			case found <- r:
			default:
			}
			a.StopScan()
		})
	}()

	select {
	case <-ctx.Done():
		adapter.StopScan()
		<-done
		return bluetooth.ScanResult{}, ctx.Err()
	case err := <-done:
		select {
		case r := <-found:
			return r, nil
		default:
		}
		if err == nil {
			err = fmt.Errorf("scan stopped before %q was found", name)
		}
		return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
	}
}
