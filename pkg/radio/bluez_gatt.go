package radio

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

// BlueZ D-Bus names used for write requests. The bluetooth package only
// issues write commands on Linux, so acknowledged writes go to BlueZ
// directly.
const (
	bluezService        = "org.bluez"
	bluezDevice         = "org.bluez.Device1"
	bluezGattService    = "org.bluez.GattService1"
	bluezGattChar       = "org.bluez.GattCharacteristic1"
	bluezWriteValue     = "org.bluez.GattCharacteristic1.WriteValue"
	dbusManagedObjects  = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
	bluezWriteTypeOpt   = "type"
	bluezWriteTypeReqst = "request"
)

// managedObjects is the reply shape of GetManagedObjects.
type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// gattRequestWriter sends GATT write requests, which the peripheral must
// acknowledge before WriteValue returns.
type gattRequestWriter struct {
	conn *dbus.Conn
	path dbus.ObjectPath
}

// newGATTRequestWriter resolves the characteristic object of a connected
// device on the system bus.
func newGATTRequestWriter(ctx context.Context, address, service, characteristic string) (*gattRequestWriter, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	var objects managedObjects
	call := conn.Object(bluezService, "/").CallWithContext(ctx, dbusManagedObjects, 0)
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("failed to list bluez objects: %w", err)
	}

	path, err := findCharacteristicPath(objects, address, service, characteristic)
	if err != nil {
		return nil, err
	}
	return &gattRequestWriter{conn: conn, path: path}, nil
}

// Write performs one write request and waits for the peripheral's response.
func (w *gattRequestWriter) Write(ctx context.Context, p []byte) error {
	opts := map[string]dbus.Variant{
		bluezWriteTypeOpt: dbus.MakeVariant(bluezWriteTypeReqst),
	}
	if err := w.conn.Object(bluezService, w.path).CallWithContext(ctx, bluezWriteValue, 0, p, opts).Err; err != nil {
		return fmt.Errorf("write request failed: %w", err)
	}
	return nil
}

// findCharacteristicPath locates characteristic inside service on the
// device with the given address.
func findCharacteristicPath(objects managedObjects, address, service, characteristic string) (dbus.ObjectPath, error) {
	var devicePath dbus.ObjectPath
	for path, ifaces := range objects {
		if props, ok := ifaces[bluezDevice]; ok && strings.EqualFold(variantString(props["Address"]), address) {
			devicePath = path
			break
		}
	}
	if devicePath == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}

	var servicePath dbus.ObjectPath
	for path, ifaces := range objects {
		props, ok := ifaces[bluezGattService]
		if ok && childOf(path, devicePath) && strings.EqualFold(variantString(props["UUID"]), service) {
			servicePath = path
			break
		}
	}
	if servicePath == "" {
		return "", ErrServiceNotFound
	}

	for path, ifaces := range objects {
		props, ok := ifaces[bluezGattChar]
		if ok && childOf(path, servicePath) && strings.EqualFold(variantString(props["UUID"]), characteristic) {
			return path, nil
		}
	}
	return "", ErrCharacteristicNotFound
}

func childOf(path, parent dbus.ObjectPath) bool {
	return strings.HasPrefix(string(path), string(parent)+"/")
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}
