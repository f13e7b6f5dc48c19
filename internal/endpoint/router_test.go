package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeAdapter is a scriptable adapter for router tests.
type fakeAdapter struct {
	name     string
	sendErr  error
	response []byte
	speech   string
	parseOK  bool

	stopErr   error
	stopDelay time.Duration

	mu        sync.Mutex
	sends     int
	stops     int
	blockSend chan struct{}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Send(context.Context, json.RawMessage, Responder) ([]byte, error) {
	f.mu.Lock()
	f.sends++
	block := f.blockSend
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.response, f.sendErr
}

func (f *fakeAdapter) ParseResponse([]byte) (string, bool) {
	return f.speech, f.parseOK
}

func (f *fakeAdapter) Stop() error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	if f.stopDelay > 0 {
		time.Sleep(f.stopDelay)
	}
	return f.stopErr
}

func (f *fakeAdapter) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func TestDispatchWithNoAdapter(t *testing.T) {
	r := NewRouter(time.Second)

	speech, err := r.Dispatch(context.Background(), json.RawMessage(`{}`), nil)
	if !errors.Is(err, ErrNotActive) {
		t.Fatalf("Dispatch() error = %v, want ErrNotActive", err)
	}
	if speech != SpeechNotActive {
		t.Errorf("speech = %q, want %q", speech, SpeechNotActive)
	}
}

func TestDispatchMapsFailureToUnreachable(t *testing.T) {
	r := NewRouter(time.Second)
	r.SetAdapter(&fakeAdapter{name: "REST", sendErr: errors.New("connection refused")})

	speech, err := r.Dispatch(context.Background(), json.RawMessage(`{}`), nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Dispatch() error = %v, want ErrUnreachable", err)
	}
	if speech != SpeechUnreachable {
		t.Errorf("speech = %q, want %q", speech, SpeechUnreachable)
	}
}

func TestDispatchReturnsParsedSpeech(t *testing.T) {
	r := NewRouter(time.Second)
	r.SetAdapter(&fakeAdapter{
		name:     "REST",
		response: []byte("turned on the light"),
		speech:   "turned on the light",
		parseOK:  true,
	})

	speech, err := r.Dispatch(context.Background(), json.RawMessage(`{"text":"light on"}`), nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if speech != "turned on the light" {
		t.Errorf("speech = %q", speech)
	}
}

func TestDispatchNoReplyOwed(t *testing.T) {
	r := NewRouter(time.Second)
	r.SetAdapter(&fakeAdapter{name: "MQTT"})

	speech, err := r.Dispatch(context.Background(), json.RawMessage(`{}`), nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if speech != "" {
		t.Errorf("speech = %q, want empty", speech)
	}
}

func TestSetAdapterStopsPrevious(t *testing.T) {
	r := NewRouter(time.Second)
	old := &fakeAdapter{name: "old"}
	r.SetAdapter(old)
	r.SetAdapter(&fakeAdapter{name: "new"})

	if got := old.stopCount(); got != 1 {
		t.Errorf("old adapter stops = %d, want 1", got)
	}
	if name, ok := r.Active(); !ok || name != "new" {
		t.Errorf("Active() = %q, %v", name, ok)
	}
}

func TestSetAdapterSurvivesStopFailure(t *testing.T) {
	r := NewRouter(time.Second)
	r.SetAdapter(&fakeAdapter{name: "old", stopErr: errors.New("already closed")})
	r.SetAdapter(&fakeAdapter{name: "new"})

	if name, ok := r.Active(); !ok || name != "new" {
		t.Errorf("Active() = %q, %v after stop failure", name, ok)
	}
}

func TestSetAdapterBoundsStopTime(t *testing.T) {
	r := NewRouter(20 * time.Millisecond)
	r.SetAdapter(&fakeAdapter{name: "slow", stopDelay: 5 * time.Second})

	start := time.Now()
	r.SetAdapter(&fakeAdapter{name: "new"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("swap took %v, stop timeout not enforced", elapsed)
	}
}

// A swap issued while a dispatch is in flight must wait for it, so the
// command runs against exactly one adapter.
func TestSwapWaitsForInflightDispatch(t *testing.T) {
	r := NewRouter(time.Second)
	old := &fakeAdapter{name: "old", blockSend: make(chan struct{})}
	r.SetAdapter(old)

	dispatched := make(chan struct{})
	go func() {
		r.Dispatch(context.Background(), json.RawMessage(`{}`), nil) //nolint:errcheck
		close(dispatched)
	}()

	// Let the dispatch enter Send, then request the swap.
	time.Sleep(10 * time.Millisecond)
	swapped := make(chan struct{})
	go func() {
		r.SetAdapter(&fakeAdapter{name: "new"})
		close(swapped)
	}()

	select {
	case <-swapped:
		t.Fatal("swap completed while dispatch was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(old.blockSend)
	<-dispatched
	select {
	case <-swapped:
	case <-time.After(time.Second):
		t.Fatal("swap never completed after dispatch drained")
	}

	if got := old.stopCount(); got != 1 {
		t.Errorf("old adapter stops = %d, want 1", got)
	}
}

func TestCloseStopsActiveAdapter(t *testing.T) {
	r := NewRouter(time.Second)
	a := &fakeAdapter{name: "REST"}
	r.SetAdapter(a)
	r.Close()

	if got := a.stopCount(); got != 1 {
		t.Errorf("stops = %d, want 1", got)
	}
	if _, ok := r.Active(); ok {
		t.Error("adapter still active after Close")
	}
}
