package reactive

import (
	"sync"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalSubscribe(t *testing.T) {
	name := NewSignal("")
	calls := 0
	stop := name.Subscribe(func() { calls++ })

	name.Set("ada")
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}

	// Same value does not notify
	name.Set("ada")
	if calls != 1 {
		t.Errorf("expected no notification for equal value, got %d", calls)
	}

	stop()
	stop()
	name.Set("grace")
	if calls != 1 {
		t.Errorf("expected no notification after unsubscribe, got %d", calls)
	}
}

func TestSignalMapUsesDeepEqual(t *testing.T) {
	errs := NewSignal(map[string][]string{"email": {"required"}})
	calls := 0
	errs.Subscribe(func() { calls++ })

	errs.Set(map[string][]string{"email": {"required"}})
	if calls != 0 {
		t.Errorf("expected deep-equal map to be ignored, got %d notifications", calls)
	}

	errs.Set(map[string][]string{})
	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
}

func TestSignalWithEquals(t *testing.T) {
	s := NewSignal(1).WithEquals(func(a, b int) bool { return a%2 == b%2 })
	calls := 0
	s.Subscribe(func() { calls++ })

	s.Set(3)
	if calls != 0 || s.Get() != 1 {
		t.Errorf("expected parity-equal value to be ignored, calls=%d value=%d", calls, s.Get())
	}
	s.Set(2)
	if calls != 1 || s.Get() != 2 {
		t.Errorf("expected change, calls=%d value=%d", calls, s.Get())
	}
}

func TestBatchSingleNotification(t *testing.T) {
	scope := NewScope()
	a := Scoped(scope, 0)
	b := Scoped(scope, "")
	c := Scoped(scope, false)

	calls := 0
	l := NewListener(func() { calls++ })
	a.Watch(l)
	b.Watch(l)
	c.Watch(l)

	scope.Batch(func() {
		a.Set(1)
		b.Set("x")
		c.Set(true)
		if calls != 0 {
			t.Errorf("expected no notification inside batch, got %d", calls)
		}
	})

	if calls != 1 {
		t.Errorf("expected 1 notification (batched), got %d", calls)
	}
}

func TestBatchNested(t *testing.T) {
	scope := NewScope()
	count := Scoped(scope, 0)
	calls := 0
	count.Subscribe(func() { calls++ })

	scope.Batch(func() {
		count.Set(1)
		scope.Batch(func() {
			count.Set(2)
		})
		if calls != 0 {
			t.Errorf("expected inner batch to defer, got %d", calls)
		}
	})

	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
}

func TestPackageBatch(t *testing.T) {
	first := NewSignal("")
	last := NewSignal("")
	calls := 0
	l := NewListener(func() { calls++ })
	first.Watch(l)
	last.Watch(l)

	Batch(func() {
		first.Set("Ada")
		last.Set("Lovelace")
		if calls != 0 {
			t.Errorf("expected no notification inside batch, got %d", calls)
		}
	})
	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}

	first.Set("Grace")
	if calls != 2 {
		t.Errorf("expected immediate notification outside Batch, got %d", calls)
	}
}

func TestScopedSignalOutsideBatch(t *testing.T) {
	scope := NewScope()
	count := Scoped(scope, 0)
	calls := 0
	count.Subscribe(func() { calls++ })

	count.Set(1)
	count.Set(2)
	if calls != 2 {
		t.Errorf("expected immediate notifications, got %d", calls)
	}
}

func TestSignalConcurrentUpdates(t *testing.T) {
	count := NewSignal(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if count.Get() != 50 {
		t.Errorf("expected 50, got %d", count.Get())
	}
}
