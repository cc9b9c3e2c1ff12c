package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"flicktrainer/internal/events"
)

// Message is one server-sent event: the event name and its data lines.
type Message struct {
	Event string
	Msg   string
}

// Sink receives every adaptation event the broadcaster sees.
type Sink interface {
	PublishAdaptation(ev events.AdaptationEvent)
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan Message]bool

	done chan struct{}
}

// NewBroadcaster drains the bus until it is closed, encoding each event for
// SSE subscribers and handing it to the sinks.
func NewBroadcaster(bus *events.Bus, sinks ...Sink) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan Message]bool),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(b.done)
		for ev := range bus.Adaptations {
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("[Broadcast] Marshal error: %v\n", err)
				continue
			}
			b.Broadcast(string(ev.Kind), string(data))
			for _, s := range sinks {
				s.PublishAdaptation(ev)
			}
		}
	}()
	return b
}

// Done is closed once the bus has been drained.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(event string, message string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- Message{Event: event, Msg: message}:
		default:
			// skip clients with full data channels
		}
	}
}
