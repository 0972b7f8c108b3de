package router

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"player-control/internal/backend"
	"player-control/internal/metrics"
)

func collect(r *Router) []backend.Event {
	var out []backend.Event
	r.Drain(func(ev backend.Event) { out = append(out, ev) })
	return out
}

func TestDrainFIFO(t *testing.T) {
	r := New()
	id := uuid.New()
	r.SetActive(id)

	for i := 0; i < 10; i++ {
		r.Publish(backend.NewProgressUpdate(id, i, 100))
	}

	got := collect(r)
	require.Len(t, got, 10)
	for i, ev := range got {
		assert.Equal(t, i, ev.PositionMs)
	}
	assert.Empty(t, collect(r), "events must not be delivered twice")
}

func TestDrainDropsStaleAfterSwap(t *testing.T) {
	r := New()
	oldID, newID := uuid.New(), uuid.New()
	r.SetActive(oldID)

	r.Publish(backend.NewBufferingUpdate(oldID, 10))
	r.Publish(backend.NewError(oldID, backend.ErrorIO, 0))

	before := testutil.ToFloat64(metrics.EventsStaleTotal)

	r.SetActive(newID)
	r.Publish(backend.NewPrepared(newID))

	got := collect(r)
	require.Len(t, got, 1)
	assert.Equal(t, backend.Prepared, got[0].Type)
	assert.Equal(t, newID, got[0].Source)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.EventsStaleTotal))
}

func TestSwapMidDrainFiltersRemainder(t *testing.T) {
	r := New()
	primary, fallback := uuid.New(), uuid.New()
	r.SetActive(primary)

	r.Publish(backend.NewError(primary, backend.ErrorIO, 0))
	r.Publish(backend.NewProgressUpdate(primary, 1, 2))
	r.Publish(backend.NewPrepared(fallback))

	var got []backend.Event
	r.Drain(func(ev backend.Event) {
		got = append(got, ev)
		if ev.Type == backend.Error {
			r.SetActive(fallback)
		}
	})

	require.Len(t, got, 2)
	assert.Equal(t, backend.Error, got[0].Type)
	assert.Equal(t, backend.Prepared, got[1].Type)
}

func TestNilActiveSuppressesEverything(t *testing.T) {
	r := New()
	id := uuid.New()
	r.Publish(backend.NewPrepared(id))
	r.Publish(backend.Event{Type: backend.Completion})

	assert.Empty(t, collect(r))
	assert.Equal(t, 0, r.Len())
}

func TestPublishDuringDrainIsDelivered(t *testing.T) {
	r := New()
	id := uuid.New()
	r.SetActive(id)
	r.Publish(backend.NewPrepared(id))

	var got []backend.EventType
	r.Drain(func(ev backend.Event) {
		got = append(got, ev.Type)
		if ev.Type == backend.Prepared {
			r.Publish(backend.NewVideoSizeChanged(id, 640, 480))
		}
	})
	assert.Equal(t, []backend.EventType{backend.Prepared, backend.VideoSizeChanged}, got)
}

func TestConcurrentPublishers(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New()
	id := uuid.New()
	r.SetActive(id)

	const producers, perProducer = 8, 500
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				// Extra carries the producer so per-producer order can be checked.
				r.Publish(backend.Event{Type: backend.ProgressUpdate, Source: id, Extra: p, PositionMs: i})
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	last := make(map[int]int)
	for p := 0; p < producers; p++ {
		last[p] = -1
	}
	total := 0
	consume := func(ev backend.Event) {
		require.Greater(t, ev.PositionMs, last[ev.Extra], "producer %d reordered", ev.Extra)
		last[ev.Extra] = ev.PositionMs
		total++
	}

	timeout := time.After(5 * time.Second)
loop:
	for {
		select {
		case <-r.Ready():
			r.Drain(consume)
		case <-done:
			r.Drain(consume)
			break loop
		case <-timeout:
			t.Fatal("timed out")
		}
	}
	assert.Equal(t, producers*perProducer, total)
}

func TestReadySignal(t *testing.T) {
	r := New()
	select {
	case <-r.Ready():
		t.Fatal("ready before publish")
	default:
	}

	r.Publish(backend.NewCompletion(uuid.New()))
	r.Publish(backend.NewCompletion(uuid.New()))
	select {
	case <-r.Ready():
	default:
		t.Fatal("expected ready signal")
	}
}
