// Command onboardctl provisions SmartMonitor devices onto a WiFi network.
package main

import "github.com/smartmonitor/onboard-go/cmd/onboardctl/commands"

func main() {
	commands.Execute()
}
