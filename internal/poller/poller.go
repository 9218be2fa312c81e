// Package poller drives the periodic refresh of the game-state store.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = 2 * time.Second

// Refresher is the store surface the poller needs.
type Refresher interface {
	Connected() bool
	Refresh(ctx context.Context) error
}

// Poller refreshes a store on a fixed interval while it is connected.
type Poller struct {
	target   Refresher
	interval time.Duration
	log      *zerolog.Logger
	onTick   func(err error)
}

// New creates a poller for target.
func New(target Refresher, interval time.Duration, logger *zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Poller{target: target, interval: interval, log: logger}
}

// OnTick registers fn to run after every refresh attempt.
func (p *Poller) OnTick(fn func(err error)) {
	p.onTick = fn
}

// Interval returns the effective poll interval.
func (p *Poller) Interval() time.Duration { return p.interval }

// Run refreshes once immediately and then on every tick until ctx is done.
// Failed ticks are logged and left for the next tick to retry.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Msg("poller started")
	defer p.log.Info().Msg("poller stopped")

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.target.Connected() {
		return
	}
	err := p.target.Refresh(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		p.log.Warn().Err(err).Msg("refresh failed")
	}
	if p.onTick != nil {
		p.onTick(err)
	}
}
