package jsonplot

import (
	"context"
	"runtime/trace"
	"sync"

	"github.com/sirupsen/logrus"
)

// imageBroadcaster fans image events out to the registered gallery clients and
// keeps the most recent ones so that new clients can catch up.
//
// A single mutex guards both the backlog and the channel list. Registration
// replays the backlog and adds the channel under that lock, so a client never
// misses or duplicates an event published concurrently.
type imageBroadcaster struct {
	mutex    sync.Mutex
	channels []chan<- ImageEvent
	backlog  *Ring[ImageEvent]

	logger logrus.FieldLogger
}

func newImageBroadcaster(backlogCapacity int) *imageBroadcaster {
	return &imageBroadcaster{
		channels: make([]chan<- ImageEvent, 0),
		backlog:  NewRing[ImageEvent](backlogCapacity),
		logger:   logrus.WithField("tag", "ImageBroadcaster"),
	}
}

// Publish never blocks on a client. A client whose channel is full misses the
// event; it is still in the backlog for the next page load.
func (b *imageBroadcaster) Publish(ctx context.Context, event ImageEvent) {
	traceCtx, task := trace.NewTask(ctx, "Publish")
	defer task.End()

	trace.WithRegion(traceCtx, "Lock", b.mutex.Lock)
	defer b.mutex.Unlock()

	b.backlog.Push(event)

	for _, c := range b.channels {
		select {
		case c <- event:
		default:
			b.logger.WithField("image", event.Name).Warn("client is not keeping up, dropping image event")
		}
	}
}

// Register replays the backlog into c and then subscribes it. c must be able
// to hold the whole backlog or be drained concurrently.
func (b *imageBroadcaster) Register(ctx context.Context, c chan<- ImageEvent) {
	traceCtx, task := trace.NewTask(ctx, "Register")
	defer task.End()

	trace.WithRegion(traceCtx, "Lock", b.mutex.Lock)
	defer b.mutex.Unlock()

	for _, event := range b.backlog.ReadAllOrdered() {
		c <- event
	}

	b.channels = append(b.channels, c)
	b.logger.WithField("clients", len(b.channels)).Info("registered gallery client")
}

// Deregister removes c. No event is sent to c once this returns, so the caller
// may close it.
func (b *imageBroadcaster) Deregister(ctx context.Context, c chan<- ImageEvent) {
	traceCtx, task := trace.NewTask(ctx, "Deregister")
	defer task.End()

	trace.WithRegion(traceCtx, "Lock", b.mutex.Lock)
	defer b.mutex.Unlock()

	b.channels = Filter(b.channels, func(channel chan<- ImageEvent) bool {
		return channel != c
	})
	b.logger.WithField("clients", len(b.channels)).Info("deregistered gallery client")
}

func (b *imageBroadcaster) Backlog() []ImageEvent {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.backlog.ReadAllOrdered()
}

func (b *imageBroadcaster) Clients() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.channels)
}
