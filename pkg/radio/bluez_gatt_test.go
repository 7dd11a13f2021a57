package radio

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bluezObjects() managedObjects {
	str := func(s string) dbus.Variant { return dbus.MakeVariant(s) }
	return managedObjects{
		"/org/bluez/hci0": {
			"org.bluez.Adapter1": {"Address": str("00:1A:7D:DA:71:13")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_08": {
			bluezDevice: {"Address": str("AA:BB:CC:00:00:08")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_08/service0010": {
			bluezGattService: {"UUID": str(ServiceUUID)},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_08/service0010/char0011": {
			bluezGattChar: {"UUID": str(CharacteristicUUID)},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_07": {
			bluezDevice: {"Address": str("AA:BB:CC:00:00:07")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_07/service0001": {
			bluezGattService: {"UUID": str("00001801-0000-1000-8000-00805f9b34fb")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_07/service0001/char0002": {
			bluezGattChar: {"UUID": str(CharacteristicUUID)},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_07/service000c": {
			bluezGattService: {"UUID": str(ServiceUUID)},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_00_00_07/service000c/char000d": {
			bluezGattChar: {"UUID": str(CharacteristicUUID)},
		},
	}
}

func TestFindCharacteristicPath(t *testing.T) {
	path, err := findCharacteristicPath(bluezObjects(), "aa:bb:cc:00:00:07", ServiceUUID, CharacteristicUUID)
	require.NoError(t, err)
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_00_00_07/service000c/char000d"), path)
}

func TestFindCharacteristicPathErrors(t *testing.T) {
	objects := bluezObjects()

	_, err := findCharacteristicPath(objects, "AA:BB:CC:00:00:09", ServiceUUID, CharacteristicUUID)
	assert.ErrorIs(t, err, ErrUnknownAddress)

	delete(objects, "/org/bluez/hci0/dev_AA_BB_CC_00_00_07/service000c/char000d")
	_, err = findCharacteristicPath(objects, "AA:BB:CC:00:00:07", ServiceUUID, CharacteristicUUID)
	assert.ErrorIs(t, err, ErrCharacteristicNotFound)

	delete(objects, "/org/bluez/hci0/dev_AA_BB_CC_00_00_07/service000c")
	_, err = findCharacteristicPath(objects, "AA:BB:CC:00:00:07", ServiceUUID, CharacteristicUUID)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
