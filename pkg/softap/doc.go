// Package softap implements the access-point transport: the controller
// leaves its current WiFi network, joins the temporary network a device
// hosts while unconfigured, posts the credentials to the device's fixed
// address and rejoins the original network.
//
// The host network interface is an explicitly owned WiFi handle. NMCLI
// drives NetworkManager through nmcli; tests use mocks.MockWiFi.
package softap
