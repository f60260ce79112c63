// Package actuator implements the Actuator Writer of §4.5: it listens on
// the actuators channel and diffs each published vector against the last
// one it wrote, issuing a coil write only for bits that changed.
package actuator

import (
	"context"
	"sync"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/app/errors"
	"invictus2obc/internal/app/fieldbus"
	"invictus2obc/internal/app/model"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// queueDepth bounds the pending-vector queue between the bus listener and
// the write goroutine. One slot is enough since a newer vector supersedes
// an older, unwritten one; depth 2 just avoids dropping the rare burst.
const queueDepth = 2

// Writer is the coil-write side of the actuator vector. It owns no state
// beyond the last-written vector; the HSM is the sole decision-maker.
// Writes happen on a dedicated goroutine so the bus listener — which must
// never block (§4.1) — only ever enqueues.
type Writer struct {
	client fieldbus.BusClient
	cfg    *config.Config
	log    logger.Logger

	pending chan model.ActuatorVector
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	last model.ActuatorVector
	seen bool
}

// New constructs a Writer and registers it as a listener on bus.Actuators
// (§4.5). The listener only enqueues; Start must be called to launch the
// goroutine that actually issues coil writes.
func New(b *bus.Bus, client fieldbus.BusClient, cfg *config.Config, log logger.Logger) (*Writer, error) {
	w := &Writer{
		client:  client,
		cfg:     cfg,
		log:     log,
		pending: make(chan model.ActuatorVector, queueDepth),
	}

	if err := b.Listen(bus.Actuators, func(v any) {
		vec, ok := v.(model.ActuatorVector)
		if !ok {
			return
		}

		select {
		case w.pending <- vec:
		default:
			// queue full: drop the stale entry, keep only the newest.
			select {
			case <-w.pending:
			default:
			}
			w.pending <- vec
		}
	}); err != nil {
		return nil, err
	}

	return w, nil
}

// Start launches the write goroutine.
func (w *Writer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(runCtx)

	return nil
}

// Stop signals the write goroutine to exit and waits for it.
func (w *Writer) Stop(context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	w.wg.Wait()

	return nil
}

func (w *Writer) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case vec := <-w.pending:
			w.apply(ctx, vec)
		}
	}
}

// apply diffs vec against the last-written vector and writes only the
// bits that changed (§4.5, §8 "Actuator-writer idempotence"). Writes are
// best-effort: a failure is logged, never retried at this layer, since the
// HSM will re-emit the same decision on its next tick if unchanged.
func (w *Writer) apply(ctx context.Context, vec model.ActuatorVector) {
	for _, id := range model.AllActuators {
		wasOpen := w.seen && w.last.Has(id)
		isOpen := vec.Has(id)

		if wasOpen == isOpen {
			continue
		}

		if err := w.writeCoil(ctx, id, isOpen); err != nil {
			w.log.Error().Err(err).Str("actuator", actuatorName(id)).Msg("coil write failed")
		}
	}

	w.last = vec
	w.seen = true
}

// writeCoil resolves id to its configured coil address and board, then
// issues one bounded write. An actuator with no configured coil mapping
// fails closed (§9 "actuator-id -> coil address is configuration").
func (w *Writer) writeCoil(ctx context.Context, id model.ActuatorID, open bool) error {
	addr, ok := w.cfg.FieldBus.Coils[actuatorName(id)]
	if !ok {
		return errors.ErrUnknownCoilMapping
	}

	unitID := w.boardFor(id)

	timeoutCtx, cancel := fieldbus.WithTimeout(ctx, w.cfg.FieldBus.Timeout)
	defer cancel()

	return w.client.WriteCoil(timeoutCtx, unitID, addr, open)
}

// boardFor maps an actuator to the field-bus unit that owns its coil.
// Fill-station and quick-disconnect valves are written to the fill-station
// hydra; every other actuator (rocket-side valves and e-matches) is written
// to the upper-feed hydra.
func (w *Writer) boardFor(id model.ActuatorID) uint8 {
	switch id {
	case model.N2oFill, model.N2oPurge, model.N2Fill, model.N2Purge, model.N2oQD, model.N2QD:
		return w.cfg.FieldBus.UnitIDs.FillStationHydra
	default:
		return w.cfg.FieldBus.UnitIDs.UpperFeedHydra
	}
}

func actuatorName(id model.ActuatorID) string {
	switch id {
	case model.Pressurizing:
		return "pressurizing"
	case model.Vent:
		return "vent"
	case model.Abort:
		return "abort"
	case model.Main:
		return "main"
	case model.N2oFill:
		return "n2o_fill"
	case model.N2oPurge:
		return "n2o_purge"
	case model.N2Fill:
		return "n2_fill"
	case model.N2Purge:
		return "n2_purge"
	case model.N2oQD:
		return "n2o_qd"
	case model.N2QD:
		return "n2_qd"
	case model.Ignition:
		return "ignition"
	case model.Drogue:
		return "drogue"
	case model.MainChute:
		return "main_chute"
	default:
		return "unknown"
	}
}
