package bus

import (
	"errors"
	"testing"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []Event
	_, err := b.Subscribe(EventFellOff, func(e Event) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent(EventFellOff, "session", 12, 0.2, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err = b.Publish(NewEvent(EventHitHazard, "session", 13, 0.21, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].Tick != 12 || got[0].Source != "session" {
		t.Fatalf("unexpected event: %+v", got[0])
	}
}

func TestSubscribeAllReceivesEveryType(t *testing.T) {
	b := New()
	var types []string
	if _, err := b.SubscribeAll(func(e Event) error {
		types = append(types, e.Type)
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := b.PublishBatch(
		NewEvent(EventTick, "runner", 1, 0, nil),
		NewEvent(EventReachedExit, "session", 2, 0, nil),
	); err != nil {
		t.Fatalf("publish batch: %v", err)
	}
	if len(types) != 2 || types[0] != EventTick || types[1] != EventReachedExit {
		t.Fatalf("unexpected delivery order: %v", types)
	}
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		if _, err := b.Subscribe("x", func(Event) error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}
	if err := b.Publish(NewEvent("x", "", 0, 0, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order mismatch: %v", order)
		}
	}
}

func TestErrorsAreJoined(t *testing.T) {
	b := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	_, _ = b.Subscribe("x", func(Event) error { return e1 })
	_, _ = b.Subscribe("x", func(Event) error { return e2 })

	err := b.Publish(NewEvent("x", "", 0, 0, nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("x", func(Event) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.ID() == "" || sub.EventType() != "x" || !sub.IsActive() {
		t.Fatalf("unexpected subscription state")
	}
	if err = b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err = sub.Cancel(); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if err = b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
	_ = b.Publish(NewEvent("x", "", 0, 0, nil))
	if calls != 0 {
		t.Fatalf("handler called after unsubscribe")
	}
	if n := b.Subscribers("x"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestNilHandlerRejected(t *testing.T) {
	if _, err := New().Subscribe("x", nil); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}
