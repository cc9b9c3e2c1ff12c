package wshub

import (
	"encoding/json"
	"testing"
	"time"

	"flicktrainer/internal/adaptation"
	"flicktrainer/internal/events"
	"flicktrainer/internal/recommend"
)

func decode(t *testing.T, data []byte) ServerMessage {
	t.Helper()
	var got ServerMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return got
}

func TestRegisterAndBroadcast(t *testing.T) {
	h := NewHub()

	c1 := &Client{ID: "c1", Send: make(chan []byte, 16)}
	c2 := &Client{ID: "c2", Send: make(chan []byte, 16)}

	h.Register(c1)
	h.Register(c2)
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}

	h.Broadcast(ServerMessage{Type: TypeAdjustments, Difficulty: 44})

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.Send:
			got := decode(t, data)
			if got.Type != TypeAdjustments || got.Difficulty != 44 {
				t.Fatalf("%s got unexpected message: %+v", c.ID, got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("%s did not receive message", c.ID)
		}
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	c1 := &Client{ID: "c1", Send: make(chan []byte, 16)}
	h.Register(c1)

	h.Unregister("c1")

	if _, ok := <-c1.Send; ok {
		t.Fatal("c1.Send should be closed")
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0", h.Len())
	}
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub()
	// Should not panic
	h.Unregister("nonexistent")
}

func TestCloseAll(t *testing.T) {
	h := NewHub()
	c1 := &Client{ID: "c1", Send: make(chan []byte, 1)}
	c2 := &Client{ID: "c2", Send: make(chan []byte, 1)}
	h.Register(c1)
	h.Register(c2)

	h.CloseAll()

	for _, c := range []*Client{c1, c2} {
		if _, ok := <-c.Send; ok {
			t.Errorf("%s.Send should be closed", c.ID)
		}
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0", h.Len())
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub()

	c := &Client{ID: "c1", Send: make(chan []byte, 1)}
	h.Register(c)

	c.Send <- []byte("filler")

	// This should not block; the message is dropped
	h.Broadcast(ServerMessage{Type: TypeAdjustments, Difficulty: 3})

	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}

	select {
	case <-c.Send:
		t.Fatal("should be empty after draining filler")
	default:
	}
}

func TestPublishAdaptation(t *testing.T) {
	h := NewHub()
	c := &Client{ID: "c1", Send: make(chan []byte, 4)}
	h.Register(c)

	rec := recommend.DifficultyRecommendation{TargetDifficulty: 70, TargetSize: 0.88}
	h.PublishAdaptation(events.AdaptationEvent{
		Kind:           events.KindRecommendation,
		Difficulty:     52,
		Adjustments:    adaptation.DefaultAdjustments(),
		Recommendation: &rec,
	})
	h.PublishAdaptation(events.AdaptationEvent{
		Kind:        events.KindAdjustments,
		Difficulty:  55,
		Adjustments: adaptation.Adjustments{TargetSizeMultiplier: 0.9, SpawnRateMultiplier: 1.1, TargetLifetimeMultiplier: 0.9, MovementSpeedMultiplier: 1.1},
	})

	got := decode(t, <-c.Send)
	if got.Type != TypeRecommendation || got.Recommendation == nil || got.Recommendation.TargetDifficulty != 70 {
		t.Errorf("first message = %+v, want recommendation for 70", got)
	}
	got = decode(t, <-c.Send)
	if got.Type != TypeAdjustments || got.Adjustments == nil || got.Adjustments.TargetSizeMultiplier != 0.9 {
		t.Errorf("second message = %+v, want adjustments with size 0.9", got)
	}
	if got.Difficulty != 55 {
		t.Errorf("Difficulty = %v, want 55", got.Difficulty)
	}
}

func TestSend_OnlyTargetsOneClient(t *testing.T) {
	h := NewHub()
	c1 := &Client{ID: "c1", Send: make(chan []byte, 4)}
	c2 := &Client{ID: "c2", Send: make(chan []byte, 4)}
	h.Register(c1)
	h.Register(c2)

	h.Send("c2", ServerMessage{Type: TypeError, Error: "nope"})
	h.Send("gone", ServerMessage{Type: TypeError})

	got := decode(t, <-c2.Send)
	if got.Type != TypeError || got.Error != "nope" {
		t.Errorf("c2 got %+v", got)
	}
	select {
	case <-c1.Send:
		t.Fatal("c1 should not receive a message addressed to c2")
	default:
	}
}

func TestSend_AfterUnregisterDoesNotPanic(t *testing.T) {
	h := NewHub()
	c := &Client{ID: "c1", Send: make(chan []byte, 1)}
	h.Register(c)
	h.Unregister("c1")
	h.Send("c1", ServerMessage{Type: TypeAdjustments})
}
