package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		key, value, ok := strings.Cut(s, "=")
		if ok {
			txt[strings.ToLower(key)] = value
		} else if key != "" {
			// Key without value (boolean flag)
			txt[strings.ToLower(key)] = ""
		}
	}
	return txt
}

// DecodeDeviceTXT fills svc from TXT records. A missing id falls back to
// the numeric suffix of the instance name.
func DecodeDeviceTXT(txt TXTRecordMap, svc *DeviceService) error {
	if s, ok := txt[TXTKeyDeviceID]; ok {
		id, err := strconv.Atoi(s)
		if err != nil || id < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidTXTRecord, TXTKeyDeviceID, s)
		}
		svc.DeviceID = id
	} else {
		id, ok := parseInstanceID(svc.InstanceName)
		if !ok {
			return fmt.Errorf("%w: no device id", ErrInvalidTXTRecord)
		}
		svc.DeviceID = id
	}

	svc.Firmware = txt[TXTKeyFirmware]
	svc.MAC = txt[TXTKeyMAC]
	return nil
}

func parseInstanceID(instance string) (int, bool) {
	if len(instance) <= len(InstancePrefix) || !strings.EqualFold(instance[:len(InstancePrefix)], InstancePrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(instance[len(InstancePrefix):])
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
