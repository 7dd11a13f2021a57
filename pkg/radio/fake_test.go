package radio

import (
	"context"
	"sync"
)

type fakeAd struct {
	Advertisement
	provisioning bool
}

type fakeStack struct {
	mu sync.Mutex

	initErr    error
	startErr   error
	connectErr error
	ads        []fakeAd
	link       *fakeLink

	inits    int
	starts   int
	stops    int
	filters  []string
	connects []string
}

func (s *fakeStack) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return s.initErr
}

func (s *fakeStack) Teardown() error { return nil }

func (s *fakeStack) StartScan(serviceUUID string, onAdv func(Advertisement)) error {
	s.mu.Lock()
	s.starts++
	s.filters = append(s.filters, serviceUUID)
	err := s.startErr
	ads := s.ads
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for _, ad := range ads {
		if serviceUUID != "" && !ad.provisioning {
			continue
		}
		onAdv(ad.Advertisement)
	}
	return nil
}

func (s *fakeStack) StopScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *fakeStack) Connect(ctx context.Context, address string) (Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects = append(s.connects, address)
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	return s.link, nil
}

func (s *fakeStack) counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops
}

type fakeLink struct {
	mu sync.Mutex

	discoverErr  error
	subscribeErr error
	writeErr     error

	// fragments are notified after a successful write.
	fragments [][]byte

	notify       func([]byte)
	writes       [][]byte
	withResponse []bool
	disconnects  int
}

func (l *fakeLink) Discover(ctx context.Context, service, characteristic string) error {
	return l.discoverErr
}

func (l *fakeLink) Subscribe(onData func([]byte)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subscribeErr != nil {
		return l.subscribeErr
	}
	l.notify = onData
	return nil
}

func (l *fakeLink) Write(ctx context.Context, p []byte, withResponse bool) error {
	l.mu.Lock()
	l.writes = append(l.writes, p)
	l.withResponse = append(l.withResponse, withResponse)
	notify := l.notify
	frags := l.fragments
	err := l.writeErr
	l.mu.Unlock()

	if err != nil {
		return err
	}
	go func() {
		for _, f := range frags {
			notify(f)
		}
	}()
	return nil
}

func (l *fakeLink) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disconnects++
	return nil
}

func (l *fakeLink) disconnectCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnects
}
