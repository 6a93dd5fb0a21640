package apzip

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// openHello opens a fresh hello archive and closes it on cleanup.
func openHello(t *testing.T) *Reader {
	t.Helper()

	r, err := OpenMemory(helloArchive(t))
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	return r
}

func TestRegistry_RegisterFetch(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	first := openHello(t)
	second := openHello(t)

	if !reg.Register(first, ":assets:") {
		t.Fatal("first Register failed")
	}
	if reg.Register(second, ":assets:") {
		t.Fatal("duplicate tag accepted")
	}
	if got := reg.Fetch(":assets:"); got != first {
		t.Fatal("Fetch returned a different reader")
	}
	if got := reg.Fetch(":missing:"); got != nil {
		t.Fatal("Fetch of unknown tag returned a reader")
	}

	// The same reader may be published under several tags.
	if !reg.Register(first, ":alias:") {
		t.Fatal("second tag for the same reader failed")
	}
	if got := reg.Fetch(":alias:"); got != first {
		t.Fatal("Fetch(:alias:) returned a different reader")
	}
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	r := openHello(t)

	if reg.Register(nil, "tag") {
		t.Fatal("nil reader accepted")
	}

	longTag := strings.Repeat("t", MaxTagLength+1)
	if reg.Register(r, longTag) {
		t.Fatal("long tag accepted")
	}
	if reg.Fetch(longTag) != nil {
		t.Fatal("Fetch of long tag returned a reader")
	}

	maxTag := strings.Repeat("t", MaxTagLength)
	if !reg.Register(r, maxTag) {
		t.Fatal("tag of MaxTagLength rejected")
	}

	closed := openHello(t)
	_ = closed.Close()
	if reg.Register(closed, "closed") {
		t.Fatal("closed reader accepted")
	}

	if got := reg.Tags(); len(got) != 1 || got[0] != maxTag {
		t.Fatalf("Tags=%v, want [%s]", got, maxTag)
	}
}

func TestRegistry_Capacity(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	readers := make([]*Reader, RegistryCapacity)
	for i := range readers {
		readers[i] = openHello(t)
		if !reg.Register(readers[i], fmt.Sprintf("slot%d", i)) {
			t.Fatalf("Register slot%d failed", i)
		}
	}

	extra := openHello(t)
	if reg.Register(extra, "overflow") {
		t.Fatal("Register beyond capacity succeeded")
	}

	// Closing one reader frees exactly one slot.
	_ = readers[3].Close()
	if reg.Fetch("slot3") != nil {
		t.Fatal("closed reader still fetchable")
	}
	if !reg.Register(extra, "overflow") {
		t.Fatal("Register after freeing a slot failed")
	}
	if reg.Register(openHello(t), "again") {
		t.Fatal("Register beyond capacity succeeded after refill")
	}
}

func TestRegistry_SlotOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for i := range 3 {
		if !reg.Register(openHello(t), fmt.Sprintf("r%d", i)) {
			t.Fatalf("Register r%d failed", i)
		}
	}

	got := strings.Join(reg.Tags(), ",")
	if got != "r0,r1,r2" {
		t.Fatalf("Tags=%s, want r0,r1,r2", got)
	}
}

func TestRegistry_CloseEvictsEverywhere(t *testing.T) {
	t.Parallel()

	regA := NewRegistry()
	regB := NewRegistry()
	r := openHello(t)

	if !regA.Register(r, "a") || !regA.Register(r, "a2") || !regB.Register(r, "b") {
		t.Fatal("Register failed")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if regA.Fetch("a") != nil || regA.Fetch("a2") != nil || regB.Fetch("b") != nil {
		t.Fatal("closed reader still registered")
	}
	if len(regA.Tags()) != 0 || len(regB.Tags()) != 0 {
		t.Fatal("tags left after Close")
	}
}

func TestRegistry_DefaultRegistry(t *testing.T) {
	r := openHello(t)

	if DefaultRegistry() != defaultRegistry {
		t.Fatal("DefaultRegistry mismatch")
	}
	if !Register(r, "test:default") {
		t.Fatal("Register in default registry failed")
	}
	if Fetch("test:default") != r {
		t.Fatal("Fetch from default registry failed")
	}

	_ = r.Close()
	if Fetch("test:default") != nil {
		t.Fatal("closed reader still in default registry")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	readers := make([]*Reader, 32)
	for i := range readers {
		readers[i] = openHello(t)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for _, r := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if reg.Register(r, "shared") {
				mu.Lock()
				won++
				mu.Unlock()
			}

			_ = reg.Fetch("shared")
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Fatalf("%d registrations won the same tag, want 1", won)
	}

	// Close everything concurrently with fetches.
	for _, r := range readers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Close()
		}()
		go func() {
			defer wg.Done()
			_ = reg.Fetch("shared")
		}()
	}
	wg.Wait()

	if reg.Fetch("shared") != nil {
		t.Fatal("tag survived closing every reader")
	}
}
