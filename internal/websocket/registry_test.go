package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_JoinAndMembersOf(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := NewClient(nil, nil)
	bob := NewClient(nil, nil)

	registry.Join(alice, "general")
	registry.Join(bob, "general")

	members := registry.MembersOf("general")
	req.ElementsMatch([]*Client{alice, bob}, members)
	req.Empty(registry.MembersOf("random"))
	req.Equal(map[string]int{"general": 2}, registry.Rooms())
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := NewClient(nil, nil)

	registry.Join(alice, "general")
	previous, moved := registry.Join(alice, "general")

	req.False(moved)
	req.Empty(previous)
	req.Len(registry.MembersOf("general"), 1)
}

func TestRegistry_JoinSwitchesRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := NewClient(nil, nil)
	bob := NewClient(nil, nil)

	registry.Join(alice, "general")
	registry.Join(bob, "general")
	previous, moved := registry.Join(alice, "random")

	req.True(moved)
	req.Equal("general", previous)
	req.Equal([]*Client{bob}, registry.MembersOf("general"))
	req.Equal([]*Client{alice}, registry.MembersOf("random"))

	room, ok := registry.RoomOf(alice)
	req.True(ok)
	req.Equal("random", room)
}

func TestRegistry_LeaveDropsEmptyRooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := NewClient(nil, nil)

	registry.Join(alice, "general")
	room, ok := registry.Leave(alice)
	req.True(ok)
	req.Equal("general", room)
	req.Empty(registry.Rooms())

	_, ok = registry.Leave(alice)
	req.False(ok)
	_, ok = registry.RoomOf(alice)
	req.False(ok)
}

func TestRegistry_MembersOfIsASnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := NewClient(nil, nil)
	registry.Join(alice, "general")

	snapshot := registry.MembersOf("general")
	registry.Join(NewClient(nil, nil), "general")
	registry.Leave(alice)

	req.Equal([]*Client{alice}, snapshot)
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	rooms := []string{"general", "random", "dev"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := NewClient(nil, nil)
			for j := 0; j < 20; j++ {
				registry.Join(client, rooms[(i+j)%len(rooms)])
				_ = registry.MembersOf(rooms[j%len(rooms)])
			}
			registry.Leave(client)
		}(i)
	}
	wg.Wait()

	req.Empty(registry.Rooms())
}
