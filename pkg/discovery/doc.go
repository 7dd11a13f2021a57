// Package discovery finds provisioned SmartMonitor devices on the local
// network over mDNS/DNS-SD.
//
// A device that joined the home network announces itself as
//
//	SmartMonitor_<id>._smartmonitor._tcp.local.
//
// with TXT records id (device id), fw (firmware version) and mac
// (station MAC, optional). The controller uses this to verify that a
// device actually came online after it acknowledged its credentials.
package discovery
