package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// EventDispatcher queues live library events and pushes the affected item
// to the archive from a fixed pool of workers.
type EventDispatcher struct {
	host       LibraryHost
	membership *MembershipResolver
	progress   *ProgressReconciler
	cfg        ConfigFunc

	queue   chan models.Event
	workers int
}

// NewEventDispatcher sizes the queue and worker pool from the current config
func NewEventDispatcher(host LibraryHost, membership *MembershipResolver, progress *ProgressReconciler, cfg ConfigFunc) *EventDispatcher {
	size := cfg().Sync.EventQueueSize
	if size < 1 {
		size = 256
	}
	workers := cfg().Sync.EventWorkers
	if workers < 1 {
		workers = 1
	}
	return &EventDispatcher{
		host:       host,
		membership: membership,
		progress:   progress,
		cfg:        cfg,
		queue:      make(chan models.Event, size),
		workers:    workers,
	}
}

// Enqueue never blocks. It returns false when the queue is full and the event was dropped.
func (d *EventDispatcher) Enqueue(event models.Event) bool {
	select {
	case d.queue <- event:
		metrics.EventQueueDepth.Set(float64(len(d.queue)))
		return true
	default:
		metrics.EventsDropped.WithLabelValues("queue_full").Inc()
		log.Warn().
			Str("type", string(event.Kind)).
			Str("item_id", event.ItemID).
			Int("capacity", cap(d.queue)).
			Msg("Event queue full, dropping event")
		return false
	}
}

// QueueDepth returns the number of waiting events
func (d *EventDispatcher) QueueDepth() int {
	return len(d.queue)
}

// Run drains the queue until ctx is done
func (d *EventDispatcher) Run(ctx context.Context) error {
	log.Info().Int("workers", d.workers).Int("queue_size", cap(d.queue)).Msg("Event dispatcher started")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case event := <-d.queue:
					metrics.EventQueueDepth.Set(float64(len(d.queue)))
					d.safeHandle(gctx, event)
				}
			}
		})
	}

	err := g.Wait()
	log.Info().Msg("Event dispatcher stopped")
	return err
}

func (d *EventDispatcher) safeHandle(ctx context.Context, event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.EventsDropped.WithLabelValues("panic").Inc()
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("type", string(event.Kind)).
				Str("item_id", event.ItemID).
				Msg("Event handler panicked, event dropped")
		}
	}()
	d.HandleEvent(ctx, event)
}

// HandleEvent applies a single event and reports whether anything was pushed
func (d *EventDispatcher) HandleEvent(ctx context.Context, event models.Event) bool {
	if event.ItemID == "" || event.UserID == "" {
		log.Debug().Str("type", string(event.Kind)).Msg("Ignoring event without user or item")
		return false
	}

	switch event.Kind {
	case models.EventProgress:
		return d.handleProgress(ctx, event)
	case models.EventWatched:
		return d.handleWatched(ctx, event)
	default:
		log.Debug().Str("type", string(event.Kind)).Msg("Ignoring unknown event type")
		return false
	}
}

func (d *EventDispatcher) handleProgress(ctx context.Context, event models.Event) bool {
	cfg := d.cfg()
	if !cfg.Sync.ProgressPush.Enabled {
		return false
	}

	name := d.userName(ctx, event)
	if !strings.EqualFold(name, cfg.Sync.ProgressPush.Username) {
		return false
	}

	item, err := d.host.GetItem(ctx, event.ItemID)
	if err != nil {
		log.Debug().Err(err).Str("item_id", event.ItemID).Msg("Progress event for unknown item")
		return false
	}
	if !d.membership.IsMember(ctx, item) {
		return false
	}

	log.Debug().
		Str("item", item.Name).
		Str("username", name).
		Int64("position_ticks", event.PositionTicks).
		Msg("Pushing progress from event")
	return d.progress.PushItemProgress(ctx, item, event.PositionTicks)
}

func (d *EventDispatcher) handleWatched(ctx context.Context, event models.Event) bool {
	name := d.userName(ctx, event)
	if name == "" || !d.cfg().Sync.ProgressPull.HasUsername(name) {
		return false
	}

	item, err := d.host.GetItem(ctx, event.ItemID)
	if err != nil {
		log.Debug().Err(err).Str("item_id", event.ItemID).Msg("Watched event for unknown item")
		return false
	}

	switch item.Kind {
	case models.KindSeries:
		if !d.membership.IsChannelMember(ctx, item) {
			return false
		}
	case models.KindEpisode:
		if !d.membership.IsMember(ctx, item) {
			return false
		}
	default:
		return false
	}

	log.Debug().
		Str("item", item.Name).
		Str("kind", string(item.Kind)).
		Str("username", name).
		Bool("played", event.Played).
		Msg("Pushing watched state from event")
	return d.progress.PushItemWatched(ctx, event.UserID, item, event.Played)
}

// userName prefers the name carried by the event and falls back to a lookup
func (d *EventDispatcher) userName(ctx context.Context, event models.Event) string {
	if event.UserName != "" {
		return event.UserName
	}
	user, err := d.host.GetUserByID(ctx, event.UserID)
	if err != nil {
		log.Debug().Err(err).Str("user_id", event.UserID).Msg("Event for unknown user")
		return ""
	}
	return user.Name
}
