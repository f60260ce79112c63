package radio

import (
	"context"
	"sync"
	"sync/atomic"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// Receiver pulls frames off a RadioLink, validates and decodes them (§6
// "Validation on receive"), and publishes accepted packets on
// bus.Packets for the Controller to consume. A rejected frame is logged
// and dropped — it never reaches the bus (§7 "Protocol violation on
// receive ... packet dropped, counter incremented").
type Receiver struct {
	link RadioLink
	bus  *bus.Bus
	cfg  *config.Config
	log  logger.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// New constructs a Receiver.
func New(link RadioLink, b *bus.Bus, cfg *config.Config, log logger.Logger) *Receiver {
	return &Receiver{link: link, bus: b, cfg: cfg, log: log}
}

// Start launches the receive loop.
func (r *Receiver) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.run(runCtx)

	return nil
}

// Stop cancels the receive loop and waits for it to exit.
func (r *Receiver) Stop(context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	r.wg.Wait()

	return nil
}

func (r *Receiver) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		frame, err := r.link.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			r.log.Warn().Err(err).Msg("radio link receive failed")
			continue
		}

		r.handle(ctx, frame)
	}
}

func (r *Receiver) handle(ctx context.Context, frame [128]byte) {
	p, err := Decode(frame[:])
	if err != nil {
		total := r.dropped.Add(1)
		r.log.Warn().Err(err).Int("dropped_total", int(total)).Msg("dropping invalid radio packet")
		return
	}

	if err := bus.Publish(r.bus, bus.Packets, p); err != nil {
		r.log.Warn().Err(err).Msg("packets channel delivery saturated")
	}
}

// DroppedCount reports how many frames have been rejected since start, for
// diagnostics.
func (r *Receiver) DroppedCount() uint64 {
	return r.dropped.Load()
}
