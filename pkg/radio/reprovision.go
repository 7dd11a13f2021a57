package radio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/provisioning"
)

// ErrEmptyPattern is returned when no name pattern is given.
var ErrEmptyPattern = errors.New("name pattern is required")

// ReprovisionOptions selects an already provisioned device by name.
type ReprovisionOptions struct {
	// NamePattern is matched case-insensitively as a substring of the
	// advertised name. The first advertisement that matches is used.
	NamePattern string

	Credentials provisioning.Credentials

	// ScanTimeout bounds the search. Zero uses the radio's scan budget.
	ScanTimeout time.Duration

	// ConfirmationTimeout bounds the wait for the acknowledgment. Zero uses
	// the radio's confirmation budget.
	ConfirmationTimeout time.Duration

	OnProgress provisioning.ProgressFunc
}

// Reprovisioner moves devices that are already on a network to new
// credentials. Provisioned devices stop advertising the provisioning
// service, so the scan is unfiltered and matches on name instead.
type Reprovisioner struct {
	radio *Radio
}

// NewReprovisioner creates a Reprovisioner on r.
func NewReprovisioner(r *Radio) *Reprovisioner {
	return &Reprovisioner{radio: r}
}

// Reprovision finds the device and runs the same exchange as Provision,
// except that the credentials write is not acknowledged at the link level.
func (p *Reprovisioner) Reprovision(ctx context.Context, opts ReprovisionOptions) (provisioning.Result, error) {
	pattern := strings.ToLower(strings.TrimSpace(opts.NamePattern))
	if pattern == "" {
		return provisioning.Result{}, ErrEmptyPattern
	}

	tr := &transport{
		radio:        p.radio,
		serviceScan:  false,
		withResponse: false,
		match: func(adv Advertisement) bool {
			return adv.Name != "" && strings.Contains(strings.ToLower(adv.Name), pattern)
		},
	}

	timeouts := p.radio.timeouts(opts.ScanTimeout, opts.ConfirmationTimeout)
	return p.radio.run(ctx, tr, nil, opts.Credentials, timeouts, opts.OnProgress)
}
