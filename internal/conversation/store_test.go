package conversation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fresh, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", fresh.ID)
	assert.Equal(t, StateIdle, fresh.State)

	require.NoError(t, store.Save(ctx, &Session{ID: "42", State: StateChooseDate, Draft: Draft{Service: "x"}}))
	got, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, StateChooseDate, got.State)

	// изменение копии не меняет хранилище
	got.State = StateEnterName
	again, _ := store.Get(ctx, "42")
	assert.Equal(t, StateChooseDate, again.State)

	require.NoError(t, store.Save(ctx, &Session{ID: "42", State: StateIdle}))
	assert.Zero(t, store.Len())

	require.NoError(t, store.Save(ctx, &Session{ID: "7", State: StateEnterName}))
	require.NoError(t, store.Delete(ctx, "7"))
	assert.Zero(t, store.Len())
}

func TestMemoryStore_EvictIdle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &Session{ID: "old", State: StateChooseTime, UpdatedAt: now.Add(-25 * time.Hour)}))
	require.NoError(t, store.Save(ctx, &Session{ID: "recent", State: StateChooseTime, UpdatedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, &Session{ID: "unstamped", State: StateEnterName}))

	assert.Equal(t, 1, store.EvictIdle(24*time.Hour))
	assert.Equal(t, 2, store.Len())

	old, _ := store.Get(ctx, "old")
	assert.Equal(t, StateIdle, old.State)
}

func TestSessionJSON(t *testing.T) {
	at := model.NewClock(11, 30)
	s := Session{
		ID:    "42",
		State: StateEnterPhone,
		Draft: Draft{
			Service:  "Классический массаж тела",
			Duration: 60,
			Date:     model.Date{Year: 2025, Month: time.October, Day: 25},
			Time:     &at,
			Name:     "Анна",
		},
	}

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date":"2025-10-25"`)
	assert.Contains(t, string(raw), `"time":"11:30"`)

	var decoded Session
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, s, decoded)

	raw, err = json.Marshal(Session{ID: "1", State: StateChooseService})
	require.NoError(t, err)
	var empty Session
	require.NoError(t, json.Unmarshal(raw, &empty))
	assert.True(t, empty.Draft.Date.IsZero())
	assert.Nil(t, empty.Draft.Time)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
		close(released)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same key must wait")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired
	<-released
	unlockB()
	assert.Zero(t, k.size())
}
