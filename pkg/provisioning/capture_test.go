package provisioning

import (
	"sync"

	"github.com/smartmonitor/onboard-go/pkg/log"
)

type captureLog struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLog) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}
