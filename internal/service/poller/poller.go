package poller

import (
	"context"
	"errors"
	"time"

	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval = time.Second
	DefaultWorkers  = 8
)

type Refresher interface {
	RefreshNowPlaying(ctx context.Context, code string) (model.Snapshot, error)
}

type RoomSource interface {
	ActiveRooms() []string
}

type Notifier interface {
	Publish(event model.Event)
}

// Poller periodically refreshes now-playing for rooms that have listeners
// and pushes the result to them.
type Poller struct {
	refresher Refresher
	rooms     RoomSource
	notifier  Notifier
	interval  time.Duration
	workers   int
	logger    zerolog.Logger
}

type Option func(*Poller)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithWorkers(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.workers = n
		}
	}
}

func New(refresher Refresher, rooms RoomSource, notifier Notifier, opts ...Option) *Poller {
	p := &Poller{
		refresher: refresher,
		rooms:     rooms,
		notifier:  notifier,
		interval:  DefaultInterval,
		workers:   DefaultWorkers,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Int("workers", p.workers).Msg("now playing poller started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("now playing poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick refreshes every active room once. A failing room does not stop the others.
func (p *Poller) Tick(ctx context.Context) {
	var g errgroup.Group
	g.SetLimit(p.workers)

	for _, code := range p.rooms.ActiveRooms() {
		g.Go(func() error {
			p.refresh(ctx, code)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Poller) refresh(ctx context.Context, code string) {
	snap, err := p.refresher.RefreshNowPlaying(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			p.logger.Debug().Str("room", code).Msg("listeners on a closed room")
			return
		}
		p.logger.Warn().Err(err).Str("room", code).Msg("now playing refresh failed")
		return
	}

	p.notifier.Publish(model.Event{
		Type:     model.EventNowPlaying,
		RoomCode: code,
		Payload:  snap,
	})
}
