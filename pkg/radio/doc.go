// Package radio implements the BLE transport for provisioning.
//
// The device advertises a fixed GATT service. A single characteristic in
// that service accepts the encoded credentials record as one write and
// answers with the acknowledgment record as one or more notifications.
//
// The host radio is an explicitly owned handle (Stack) with Init and
// Teardown; nothing in this package touches a global adapter. BlueZStack
// implements Stack with tinygo.org/x/bluetooth.
//
// Scans are always stopped exactly once, and a connected link is always
// disconnected, on every exit path.
package radio
