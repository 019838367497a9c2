package ws

import (
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func newRegistryClient(userID string) *Client {
	return NewClient(nil, nil, userID, "user-"+userID, "", zap.NewNop())
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	c := newRegistryClient("u1")

	if displaced := r.Register("u1", c); displaced != nil {
		t.Error("First registration must not displace anything")
	}
	if !r.IsOnline("u1") {
		t.Error("Expected u1 online")
	}
	if r.Get("u1") != c {
		t.Error("Expected Get to return the registered client")
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", r.Len())
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	c1 := newRegistryClient("u1")
	c2 := newRegistryClient("u1")

	r.Register("u1", c1)
	r.AddRoom("u1", "room-1")

	displaced := r.Register("u1", c2)
	if displaced != c1 {
		t.Error("Expected the first connection to be displaced")
	}
	if r.Get("u1") != c2 {
		t.Error("Expected the new connection to be registered")
	}
	// The replacement starts with a fresh room set
	if r.InRoom("u1", "room-1") {
		t.Error("Expected no room carry-over across reconnect")
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", r.Len())
	}
}

func TestRegistryRemoveClient(t *testing.T) {
	r := NewRegistry()
	c := newRegistryClient("u1")
	r.Register("u1", c)
	r.AddRoom("u1", "room-1")
	r.AddRoom("u1", "room-2")

	rooms, removed := r.RemoveClient(c)
	if !removed {
		t.Fatal("Expected removal")
	}
	if len(rooms) != 2 {
		t.Errorf("Expected 2 rooms back, got %d", len(rooms))
	}
	if r.IsOnline("u1") {
		t.Error("Expected u1 offline after removal")
	}

	// A second removal finds nothing
	if _, removed := r.RemoveClient(c); removed {
		t.Error("Expected repeated removal to be a no-op")
	}
}

func TestRegistryRemoveClientIdentity(t *testing.T) {
	r := NewRegistry()
	c1 := newRegistryClient("u1")
	c2 := newRegistryClient("u1")

	r.Register("u1", c1)
	r.Register("u1", c2)

	// The displaced connection must not tear down the new entry
	if _, removed := r.RemoveClient(c1); removed {
		t.Error("Expected stale removal to be a no-op")
	}
	if r.Get("u1") != c2 {
		t.Error("Expected the new connection to stay registered")
	}

	if _, removed := r.RemoveClient(c2); !removed {
		t.Error("Expected the current connection to remove its entry")
	}
}

func TestRegistryRoomsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newRegistryClient("u1")
	r.Register("u1", c)

	r.AddRoom("u1", "room-1")
	r.AddRoom("u1", "room-1")
	if len(r.Rooms("u1")) != 1 {
		t.Errorf("Expected 1 room, got %d", len(r.Rooms("u1")))
	}

	r.RemoveRoom("u1", "room-1")
	r.RemoveRoom("u1", "room-1")
	if r.InRoom("u1", "room-1") {
		t.Error("Expected room removed")
	}

	// No entry, no effect
	r.AddRoom("ghost", "room-1")
	if r.InRoom("ghost", "room-1") {
		t.Error("AddRoom without an entry must be a no-op")
	}
}

func TestRegistryMembersOf(t *testing.T) {
	r := NewRegistry()
	c1 := newRegistryClient("u1")
	c2 := newRegistryClient("u2")
	c3 := newRegistryClient("u3")
	r.Register("u1", c1)
	r.Register("u2", c2)
	r.Register("u3", c3)
	r.AddRoom("u1", "room-1")
	r.AddRoom("u2", "room-1")
	r.AddRoom("u3", "room-2")

	members := r.MembersOf("room-1")
	if len(members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(members))
	}
	if r.OnlineInRoom("room-1") != 2 {
		t.Errorf("Expected 2 online in room-1, got %d", r.OnlineInRoom("room-1"))
	}

	// The snapshot is detached from later mutation
	r.RemoveRoom("u2", "room-1")
	if len(members) != 2 {
		t.Error("Expected snapshot to be unaffected by mutation")
	}
	if r.OnlineInRoom("room-1") != 1 {
		t.Errorf("Expected 1 online after removal, got %d", r.OnlineInRoom("room-1"))
	}
}

// Snapshots taken while other goroutines churn the registry must never
// tear: the stable members are always present and no slot is corrupted.
// Run under the race detector for full effect.
func TestRegistryConcurrentSnapshot(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("stable-%d", i)
		r.Register(id, newRegistryClient(id))
		r.AddRoom(id, "room-1")
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("churn-%d", w)
			for {
				select {
				case <-stop:
					return
				default:
				}
				c := newRegistryClient(id)
				r.Register(id, c)
				r.AddRoom(id, "room-1")
				r.RemoveRoom(id, "room-1")
				r.RemoveClient(c)
			}
		}(w)
	}

	for i := 0; i < 2000; i++ {
		members := r.MembersOf("room-1")
		// Churners come and go; the stable members never leave
		if len(members) < 4 || len(members) > 8 {
			t.Fatalf("Torn snapshot: %d members", len(members))
		}
		for _, c := range members {
			if c == nil {
				t.Fatal("Snapshot contained a nil client")
			}
		}
	}

	close(stop)
	wg.Wait()
}

func TestRegistryOnlineUsers(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", newRegistryClient("u1"))
	r.Register("u2", newRegistryClient("u2"))

	users := r.OnlineUsers()
	if len(users) != 2 {
		t.Errorf("Expected 2 online users, got %d", len(users))
	}
}
