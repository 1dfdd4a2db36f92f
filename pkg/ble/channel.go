package ble

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Peripheral is an established connection to the LED device.
type Peripheral interface {
	// WriteCommand writes one command to the LED characteristic.
	WriteCommand(cmd Command) error
	// Disconnect tears down the connection.
	Disconnect() error
}

// Config controls the command channel. Zero fields take the defaults below.
type Config struct {
	// DeviceName is the advertised local name to scan for (default "LED").
	DeviceName string

	// ServiceUUID and CharacteristicUUID identify the LED GATT endpoint.
	// Defaults match the LED firmware.
	ServiceUUID        string
	CharacteristicUUID string

	// DiscoveryTimeout bounds the scan for the peripheral (default 10s).
	DiscoveryTimeout time.Duration

	// PollTimeout is the send loop's wait granularity, which bounds how
	// quickly it notices a stop request (default 100ms).
	PollTimeout time.Duration

	// JoinTimeout bounds how long Stop waits for the send loop (default 2s).
	JoinTimeout time.Duration

	// MaxWriteFailures is the number of consecutive write failures after
	// which the connection is considered lost (default 3).
	MaxWriteFailures int

	// Connect discovers and connects the peripheral. Defaults to the
	// BLE implementation in this package; swappable for tests.
	Connect func(ctx context.Context, cfg Config) (Peripheral, error)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.DeviceName == "" {
		c.DeviceName = DefaultDeviceName
	}
	if c.ServiceUUID == "" {
		c.ServiceUUID = DefaultServiceUUID
	}
	if c.CharacteristicUUID == "" {
		c.CharacteristicUUID = DefaultCharacteristicUUID
	}
	if c.DiscoveryTimeout <= 0 {
		c.DiscoveryTimeout = 10 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 100 * time.Millisecond
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = 2 * time.Second
	}
	if c.MaxWriteFailures <= 0 {
		c.MaxWriteFailures = 3
	}
	if c.Connect == nil {
		c.Connect = connectGATT
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Channel is the single-slot command relay to the LED peripheral.
type Channel struct {
	cfg    Config
	logger *slog.Logger

	notify chan struct{}

	mu           sync.Mutex
	pending      *Command
	running      bool
	disconnected bool
	lossLogged   bool
	stop         chan struct{}
	done         chan struct{}
}

// NewChannel creates a Channel. The channel is inert until Start is called.
func NewChannel(cfg Config) *Channel {
	cfg = cfg.withDefaults()
	return &Channel{
		cfg:    cfg,
		logger: cfg.Logger,
		notify: make(chan struct{}, 1),
	}
}

// Start begins discovery, connection, and the send loop on a dedicated
// goroutine. If the peripheral cannot be found or connected the goroutine
// exits cleanly and the channel stays in degraded no-op mode.
func (c *Channel) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stop, c.done
	c.mu.Unlock()

	go c.run(stop, done)
}

// Send stages a command for delivery, overwriting any not-yet-sent one.
// It returns immediately regardless of connection state; commands sent
// after the connection is lost are dropped (logged once).
func (c *Channel) Send(cmd Command) {
	c.mu.Lock()
	if c.disconnected {
		if !c.lossLogged {
			c.lossLogged = true
			c.logger.Warn("ble: peripheral gone, dropping commands from now on")
		}
		c.mu.Unlock()
		return
	}
	c.pending = &cmd
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Rainbow stages the beat-on command.
func (c *Channel) Rainbow() { c.Send(CmdRainbow) }

// Off stages the LED-off command.
func (c *Channel) Off() { c.Send(CmdOff) }

// Stop stages a best-effort "off", signals the send loop to finish, and
// waits up to JoinTimeout for it to exit. Safe to call at any time.
func (c *Channel) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stop, done := c.stop, c.done
	c.mu.Unlock()

	c.Send(CmdOff)
	close(stop)

	select {
	case <-done:
	case <-time.After(c.cfg.JoinTimeout):
		c.logger.Warn("ble: send loop did not exit within join timeout")
	}
}

func (c *Channel) run(stop, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DiscoveryTimeout)
	defer cancel()

	// Watch for an early Stop while still discovering.
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	peripheral, err := c.cfg.Connect(ctx, c.cfg)
	if err != nil {
		c.logger.Warn("ble: peripheral unavailable, continuing without LED sync",
			"device", c.cfg.DeviceName, "err", err)
		c.setDisconnected()
		return
	}
	defer peripheral.Disconnect()

	c.logger.Info("ble: connected", "device", c.cfg.DeviceName)
	c.sendLoop(peripheral, stop)
}

func (c *Channel) sendLoop(peripheral Peripheral, stop chan struct{}) {
	failures := 0
	timer := time.NewTimer(c.cfg.PollTimeout)
	defer timer.Stop()

	for {
		if cmd := c.takePending(); cmd != nil {
			if err := peripheral.WriteCommand(*cmd); err != nil {
				failures++
				c.logger.Warn("ble: write failed", "cmd", *cmd, "err", err)
				if failures >= c.cfg.MaxWriteFailures {
					c.logger.Warn("ble: connection lost, LED sync disabled")
					c.setDisconnected()
					return
				}
			} else {
				failures = 0
			}
			continue
		}

		select {
		case <-stop:
			// Flush the final command (Stop staged an "off") before exit.
			if cmd := c.takePending(); cmd != nil {
				if err := peripheral.WriteCommand(*cmd); err != nil {
					c.logger.Warn("ble: final write failed", "err", err)
				}
			}
			c.setDisconnected()
			return
		case <-c.notify:
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(c.cfg.PollTimeout)
	}
}

func (c *Channel) takePending() *Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmd := c.pending
	c.pending = nil
	return cmd
}

func (c *Channel) setDisconnected() {
	c.mu.Lock()
	c.disconnected = true
	c.pending = nil
	c.mu.Unlock()
}
