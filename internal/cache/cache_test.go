package cache

import (
	"sync"
	"testing"
	"time"

	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	statisticsdomain "github.com/vectcut/credits/internal/statistics/domain"
)

func TestTTLCache_ExpiresOnRead(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, 20*time.Millisecond)
	if got, ok := c.Get("a"); !ok || got != 1 {
		t.Fatalf("expected fresh value, got %d, %v", got, ok)
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected expired entry")
	}
}

func TestTTLCache_ZeroTTLIsNotStored(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, 0)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected zero TTL entry to be dropped")
	}
}

func TestTTLCache_DeleteFunc(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("balance|42", 1, time.Minute)
	c.Set("statistics|42", 2, time.Minute)
	c.Set("balance|7", 3, time.Minute)

	c.DeleteFunc(func(key string) bool { return key == "balance|42" || key == "statistics|42" })

	if _, ok := c.Get("balance|42"); ok {
		t.Fatal("expected balance|42 deleted")
	}
	if _, ok := c.Get("statistics|42"); ok {
		t.Fatal("expected statistics|42 deleted")
	}
	if got, ok := c.Get("balance|7"); !ok || got != 3 {
		t.Fatal("expected balance|7 to survive")
	}
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTLCache[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(n, j, time.Minute)
				c.Get(n)
			}
		}(i)
	}
	wg.Wait()
}

func TestLedgerCache_InvalidateOwnerKeepsStaleCopy(t *testing.T) {
	c := NewLedgerCache()
	balance := &ledgerdomain.Balance{ID: 1, OwnerID: 42, Balance: 100}

	c.SetBalance("42", balance)
	if got, ok := c.GetBalance("42"); !ok || got.Balance != 100 {
		t.Fatalf("expected cached balance, got %+v, %v", got, ok)
	}

	c.InvalidateOwner("42")

	if _, ok := c.GetBalance("42"); ok {
		t.Fatal("expected fresh entry dropped")
	}
	if got, ok := c.GetStaleBalance("42"); !ok || got.Balance != 100 {
		t.Fatalf("expected stale copy to survive, got %+v, %v", got, ok)
	}

	c.SetStatistics("42", &statisticsdomain.Statistics{TotalGenerations: 3})
	c.InvalidateOwner("42")
	if _, ok := c.GetStatistics("42"); ok {
		t.Fatal("expected fresh statistics dropped")
	}
	if got, ok := c.GetStaleStatistics("42"); !ok || got.TotalGenerations != 3 {
		t.Fatalf("expected stale statistics to survive, got %+v, %v", got, ok)
	}
}

func TestLedgerCache_OwnersAreIsolated(t *testing.T) {
	c := NewLedgerCache()

	c.SetBalance("42", &ledgerdomain.Balance{ID: 1, OwnerID: 42, Balance: 100})
	c.SetBalance("7", &ledgerdomain.Balance{ID: 2, OwnerID: 7, Balance: 50})

	c.InvalidateOwner("42")

	if _, ok := c.GetBalance("42"); ok {
		t.Fatal("expected owner 42 dropped")
	}
	if got, ok := c.GetBalance("7"); !ok || got.Balance != 50 {
		t.Fatalf("expected owner 7 untouched, got %+v, %v", got, ok)
	}
}

func TestLedgerCache_NilValuesIgnored(t *testing.T) {
	c := NewLedgerCache()

	c.SetBalance("42", nil)
	if _, ok := c.GetBalance("42"); ok {
		t.Fatal("expected nil balance to be ignored")
	}
	c.SetStatistics("42", nil)
	if _, ok := c.GetStatistics("42"); ok {
		t.Fatal("expected nil statistics to be ignored")
	}
}
