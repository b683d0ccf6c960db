package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telegram-drop-bot/internal/domain/model"
	"telegram-drop-bot/internal/domain/ports/adapter"
	"telegram-drop-bot/internal/domain/ports/repository"
	"telegram-drop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// ExpiryScheduler guarantees exactly one deletion attempt per outstanding
// ledger record, fired at max(now, ExpireAt). It holds no durable state of
// its own: the ledger is authoritative and Rehydrate rebuilds the timer set
// after a restart. All timer-map access goes through the mutex-serialized
// entry points; the map is never shared raw.
type ExpiryScheduler struct {
	ledger  repository.DeliveryLedger
	gateway adapter.MediaGateway
	log     *zerolog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func New(ledger repository.DeliveryLedger, gateway adapter.MediaGateway, logger *zerolog.Logger) *ExpiryScheduler {
	l := logger.With().Str("component", "ExpiryScheduler").Logger()
	return &ExpiryScheduler{
		ledger:  ledger,
		gateway: gateway,
		log:     &l,
		timers:  make(map[string]*time.Timer),
	}
}

// Arm schedules a single deletion attempt for rec. A record whose window has
// already passed fires through an immediate zero-delay timer, which still
// runs on its own goroutine rather than inline with the caller. Arming an id
// that already has a timer is a programming error; the duplicate is dropped
// and logged rather than armed twice.
func (s *ExpiryScheduler) Arm(rec *model.DeliveryRecord) {
	delay := time.Until(rec.ExpireAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, exists := s.timers[rec.ID]; exists {
		s.log.Error().Str("id", rec.ID).Msg("duplicate arm ignored")
		return
	}
	s.timers[rec.ID] = time.AfterFunc(delay, func() { s.fire(rec) })
	metrics.SetArmedTimers(len(s.timers))
}

// Disarm cancels a pending timer without touching the ledger. Shutdown path
// only; there is no user-facing cancellation of an auto-delete.
func (s *ExpiryScheduler) Disarm(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, id)
	metrics.SetArmedTimers(len(s.timers))
	return true
}

// Rehydrate arms a timer for every outstanding ledger record. Called once at
// startup, after the stores are open and before any transport accepts
// traffic; it is the sole recovery path for timers lost to a restart.
func (s *ExpiryScheduler) Rehydrate(ctx context.Context) (int, error) {
	recs, err := s.ledger.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list deliveries: %w", err)
	}
	for _, rec := range recs {
		s.Arm(rec)
	}
	if len(recs) > 0 {
		s.log.Info().Int("count", len(recs)).Msg("rehydrated pending deletions")
	}
	return len(recs), nil
}

// Armed reports how many timers are currently pending.
func (s *ExpiryScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer. The records stay in the ledger and are
// picked up by the next Rehydrate.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	metrics.SetArmedTimers(0)
}

// fire runs the deletion protocol for rec. The platform delete is best
// effort: a message the user already deleted, or one the bot lost rights to,
// is logged and forgotten. The ledger row is removed unconditionally once an
// attempt has been made, so a failed delete never leaves an immortal record.
func (s *ExpiryScheduler) fire(rec *model.DeliveryRecord) {
	// Timer callbacks are detached from any request.
	ctx := context.Background()

	if err := s.gateway.DeleteMessage(ctx, rec.ChatID, rec.MessageID); err != nil {
		metrics.IncDeleteFailed()
		s.log.Warn().Err(err).Str("id", rec.ID).Int64("chat_id", rec.ChatID).
			Int("message_id", rec.MessageID).Msg("platform delete failed; dropping record anyway")
	}
	if err := s.ledger.Remove(ctx, rec.ID); err != nil {
		s.log.Error().Err(err).Str("id", rec.ID).Msg("ledger remove failed")
	} else {
		metrics.IncExpired()
	}

	s.mu.Lock()
	delete(s.timers, rec.ID)
	metrics.SetArmedTimers(len(s.timers))
	s.mu.Unlock()

	s.log.Info().Str("id", rec.ID).Str("key", rec.SourceKey).Msg("delivery expired")
}
