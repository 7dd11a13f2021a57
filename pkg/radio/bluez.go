package radio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// stopScanWait bounds how long StopScan waits for the scan loop to exit.
const stopScanWait = 2 * time.Second

// BlueZStack is a Stack backed by tinygo.org/x/bluetooth (BlueZ over D-Bus
// on Linux).
type BlueZStack struct {
	adapter *bluetooth.Adapter
	logger  *slog.Logger

	mu       sync.Mutex
	enabled  bool
	scanDone chan error
	seen     map[string]bluetooth.Address
}

// NewBlueZStack creates a stack on the default adapter.
func NewBlueZStack(logger *slog.Logger) *BlueZStack {
	return &BlueZStack{
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
		seen:    make(map[string]bluetooth.Address),
	}
}

// Init enables the adapter.
func (s *BlueZStack) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled {
		return nil
	}
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable adapter: %w", err)
	}
	s.enabled = true
	return nil
}

// Teardown stops scanning and forgets scanned addresses. The adapter
// itself stays powered; BlueZ owns its lifetime.
func (s *BlueZStack) Teardown() error {
	err := s.StopScan()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	s.seen = make(map[string]bluetooth.Address)
	return err
}

// StartScan starts a background scan.
func (s *BlueZStack) StartScan(serviceUUID string, onAdv func(Advertisement)) error {
	var filter *bluetooth.UUID
	if serviceUUID != "" {
		u, err := bluetooth.ParseUUID(serviceUUID)
		if err != nil {
			return fmt.Errorf("invalid service uuid: %w", err)
		}
		filter = &u
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return ErrNotInitialized
	}
	if s.scanDone != nil {
		return ErrScanInProgress
	}

	done := make(chan error, 1)
	s.scanDone = done

	go func() {
		done <- s.adapter.Scan(func(_ *bluetooth.Adapter, res bluetooth.ScanResult) {
			if filter != nil && !res.HasServiceUUID(*filter) {
				return
			}
			addr := res.Address.String()

			s.mu.Lock()
			s.seen[addr] = res.Address
			s.mu.Unlock()

			onAdv(Advertisement{Address: addr, Name: res.LocalName(), RSSI: int(res.RSSI)})
		})
	}()
	return nil
}

// StopScan stops the running scan and waits for the scan loop to exit.
func (s *BlueZStack) StopScan() error {
	s.mu.Lock()
	done := s.scanDone
	s.scanDone = nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	stopErr := s.adapter.StopScan()

	select {
	case err := <-done:
		if err != nil && stopErr == nil {
			return fmt.Errorf("scan failed: %w", err)
		}
	case <-time.After(stopScanWait):
		s.debugLog("scan loop did not exit in time")
	}
	if stopErr != nil {
		return fmt.Errorf("failed to stop scan: %w", stopErr)
	}
	return nil
}

// Connect connects to an address reported by an earlier scan.
func (s *BlueZStack) Connect(ctx context.Context, address string) (Link, error) {
	s.mu.Lock()
	addr, ok := s.seen[address]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}

	type result struct {
		dev bluetooth.Device
		err error
	}
	ch := make(chan result, 1)
	go func() {
		dev, err := s.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- result{dev: dev, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", address, r.err)
		}
		return &bluezLink{dev: r.dev}, nil
	case <-ctx.Done():
		// Drop a connection that completes after the caller gave up.
		go func() {
			if r := <-ch; r.err == nil {
				_ = r.dev.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}
}

// debugLog logs a debug message if logging is enabled.
func (s *BlueZStack) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// bluezLink is a connected BlueZ device.
type bluezLink struct {
	dev bluetooth.Device

	mu        sync.Mutex
	chr       *bluetooth.DeviceCharacteristic
	svcUUID   string
	chrUUID   string
	requester *gattRequestWriter
}

func (l *bluezLink) Discover(ctx context.Context, service, characteristic string) error {
	svcUUID, err := bluetooth.ParseUUID(service)
	if err != nil {
		return fmt.Errorf("invalid service uuid: %w", err)
	}
	chrUUID, err := bluetooth.ParseUUID(characteristic)
	if err != nil {
		return fmt.Errorf("invalid characteristic uuid: %w", err)
	}

	return runWithContext(ctx, func() error {
		svcs, err := l.dev.DiscoverServices([]bluetooth.UUID{svcUUID})
		if err != nil {
			return fmt.Errorf("failed to discover services: %w", err)
		}
		if len(svcs) == 0 {
			return ErrServiceNotFound
		}
		chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{chrUUID})
		if err != nil {
			return fmt.Errorf("failed to discover characteristics: %w", err)
		}
		if len(chars) == 0 {
			return ErrCharacteristicNotFound
		}

		l.mu.Lock()
		l.chr = &chars[0]
		l.svcUUID = svcUUID.String()
		l.chrUUID = chrUUID.String()
		l.mu.Unlock()
		return nil
	})
}

func (l *bluezLink) characteristic() (*bluetooth.DeviceCharacteristic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chr == nil {
		return nil, ErrCharacteristicNotFound
	}
	return l.chr, nil
}

func (l *bluezLink) Subscribe(onData func([]byte)) error {
	chr, err := l.characteristic()
	if err != nil {
		return err
	}
	if err := chr.EnableNotifications(onData); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	return nil
}

func (l *bluezLink) Write(ctx context.Context, p []byte, withResponse bool) error {
	chr, err := l.characteristic()
	if err != nil {
		return err
	}
	if withResponse {
		w, err := l.requestWriter(ctx)
		if err != nil {
			return err
		}
		return w.Write(ctx, p)
	}
	return runWithContext(ctx, func() error {
		_, err := chr.WriteWithoutResponse(p)
		return err
	})
}

// requestWriter resolves the write request target once per link.
func (l *bluezLink) requestWriter(ctx context.Context) (*gattRequestWriter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.requester != nil {
		return l.requester, nil
	}
	w, err := newGATTRequestWriter(ctx, l.dev.Address.String(), l.svcUUID, l.chrUUID)
	if err != nil {
		return nil, err
	}
	l.requester = w
	return w, nil
}

func (l *bluezLink) Disconnect() error {
	return l.dev.Disconnect()
}

// Compile-time interface satisfaction checks.
var (
	_ Stack = (*BlueZStack)(nil)
	_ Link  = (*bluezLink)(nil)
)
