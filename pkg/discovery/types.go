package discovery

import (
	"errors"
	"fmt"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the service type provisioned devices announce.
	ServiceType = "_smartmonitor._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// InstancePrefix starts every device instance name.
	InstancePrefix = "SmartMonitor_"
)

// TXT record keys.
const (
	TXTKeyDeviceID = "id"
	TXTKeyFirmware = "fw"
	TXTKeyMAC      = "mac"
)

// BrowseTimeout is the default timeout for mDNS browsing.
const BrowseTimeout = 10 * time.Second

// Discovery errors.
var (
	ErrNotFound         = errors.New("service not found")
	ErrInvalidTXTRecord = errors.New("invalid TXT record format")
)

// DeviceService is a device announcement, aggregated over interfaces.
type DeviceService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	// DeviceID is taken from the id TXT record, or from the instance name
	// when the record is absent.
	DeviceID int

	Firmware string
	MAC      string
}

// InstanceName returns the instance name a device with id announces.
func InstanceName(deviceID int) string {
	return fmt.Sprintf("%s%d", InstancePrefix, deviceID)
}
