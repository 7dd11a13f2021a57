// Package wire defines the records exchanged with a device during
// provisioning and the codecs used to put them on a transport.
//
// # Records
//
// Two records cross the wire, on both transports:
//   - Credentials: controller to device ({ssid, password, email?})
//   - Ack: device to controller ({success, deviceId?, error?, message?})
//
// The radio transport sends the encoded Credentials as a single
// characteristic write and receives the Ack as one or more notifications.
// The access-point transport sends Credentials as a request body and reads
// the Ack from the response body.
//
// # Codecs
//
// Field names are identical in every codec. JSON is the default because the
// device firmware parses JSON; CBOR is available for firmware builds that
// accept the compact form. Both codecs report truncated input as
// ErrIncomplete so a caller reassembling notification fragments can keep
// waiting, and anything else that fails to parse as ErrMalformed.
package wire
