package ble

import (
	"context"
	"errors"
	"fmt"

	"tinygo.org/x/bluetooth"
)

// Defaults matching the LED firmware (ESP32 BLE server advertising as
// "LED" with one writable characteristic).
const (
	DefaultDeviceName         = "LED"
	DefaultServiceUUID        = "4fafc201-1fb5-459e-8fcc-c5c9c331914b"
	DefaultCharacteristicUUID = "beb5483e-36e1-4688-b7f5-ea07361b26a8"
)

// gattPeripheral is a connected LED device.
type gattPeripheral struct {
	device bluetooth.Device
	char   bluetooth.DeviceCharacteristic
}

func (p *gattPeripheral) WriteCommand(cmd Command) error {
	_, err := p.char.WriteWithoutResponse([]byte(cmd))
	return err
}

func (p *gattPeripheral) Disconnect() error {
	return p.device.Disconnect()
}

// connectGATT scans for the peripheral by advertised local name, connects,
// and resolves the LED characteristic. The scan is bounded by ctx.
func connectGATT(ctx context.Context, cfg Config) (Peripheral, error) {
	serviceUUID, err := bluetooth.ParseUUID(cfg.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: bad service uuid %q: %w", cfg.ServiceUUID, err)
	}
	charUUID, err := bluetooth.ParseUUID(cfg.CharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: bad characteristic uuid %q: %w", cfg.CharacteristicUUID, err)
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	addr, err := scanForName(ctx, adapter, cfg.DeviceName)
	if err != nil {
		return nil, err
	}

	device, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("ble: connect %q: %w", cfg.DeviceName, err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil || len(services) == 0 {
		device.Disconnect()
		return nil, fmt.Errorf("ble: service %s not found: %w", cfg.ServiceUUID, err)
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	if err != nil || len(chars) == 0 {
		device.Disconnect()
		return nil, fmt.Errorf("ble: characteristic %s not found: %w", cfg.CharacteristicUUID, err)
	}

	return &gattPeripheral{device: device, char: chars[0]}, nil
}

// scanForName scans until a device advertising the given local name is seen
// or ctx expires.
func scanForName(ctx context.Context, adapter *bluetooth.Adapter, name string) (bluetooth.Address, error) {
	found := make(chan bluetooth.Address, 1)
	scanErr := make(chan error, 1)

	go func() {
		err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if result.LocalName() != name {
				return
			}
			a.StopScan()
			select {
			case found <- result.Address:
			default:
			}
		})
		if err != nil {
			scanErr <- err
		}
	}()

	select {
	case addr := <-found:
		return addr, nil
	case err := <-scanErr:
		return bluetooth.Address{}, fmt.Errorf("ble: scan: %w", err)
	case <-ctx.Done():
		adapter.StopScan()
		return bluetooth.Address{}, errors.New("ble: discovery timed out")
	}
}
