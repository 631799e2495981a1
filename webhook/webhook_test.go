package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_Signed(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := NewEvent(EventSearchCompleted, "job-1", map[string]int{"count": 5})
	err := DefaultSender.Deliver(context.Background(), srv.URL, "s3cret", ev)
	require.NoError(t, err)

	assert.True(t, Verify("s3cret", gotBody, gotSig))
	assert.False(t, Verify("other", gotBody, gotSig))

	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventSearchCompleted, decoded.Type)
	assert.Equal(t, "job-1", decoded.JobID)
}

func TestDeliver_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, DefaultSender.Deliver(context.Background(), srv.URL, "", NewEvent(EventSearchFailed, "j", nil)))
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := DefaultSender.Deliver(context.Background(), srv.URL, "", NewEvent(EventSearchFailed, "j", nil))
	assert.ErrorContains(t, err, "502")
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	s := &Sender{Client: srv.Client(), Delays: []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}}
	done := s.DeliverAsync(srv.URL, "", NewEvent(EventSearchCompleted, "j", nil))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.Equal(t, int32(3), calls.Load())
}
