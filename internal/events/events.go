package events

import (
	"sync"

	"flicktrainer/internal/adaptation"
	"flicktrainer/internal/recommend"
)

type Kind string

const (
	// KindAdjustments: live difficulty or multipliers changed.
	KindAdjustments = Kind("adjustments")
	// KindRecommendation: a recommendation is waiting for the player.
	KindRecommendation = Kind("recommendation")
	KindDismissed      = Kind("dismissed")
	KindProfileReset   = Kind("profileReset")
)

type AdaptationEvent struct {
	Kind           Kind                                `json:"kind"`
	Difficulty     float64                             `json:"currentDifficulty"`
	Adjustments    adaptation.Adjustments              `json:"activeAdjustments"`
	Recommendation *recommend.DifficultyRecommendation `json:"recommendation,omitempty"`
}

type Bus struct {
	Adaptations chan AdaptationEvent

	mu     sync.Mutex
	closed bool
}

func NewBus() *Bus {
	return &Bus{
		Adaptations: make(chan AdaptationEvent, 10),
	}
}

// Publish queues an event without blocking. It reports false when the
// buffer is full or the bus is closed.
func (b *Bus) Publish(ev AdaptationEvent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	select {
	case b.Adaptations <- ev:
		return true
	default:
		return false
	}
}

// Close stops the bus; consumers ranging over Adaptations return.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.Adaptations)
	}
}
