package sse

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWriterWriteEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.WriteEvent(EventChunk, map[string]string{"text": "<html>"}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "event: chunk\ndata: {\"text\":\"\\u003chtml\\u003e\"}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestWriterClosed(t *testing.T) {
	rec := httptest.NewRecorder()
	w, _ := NewWriter(rec)
	w.Close()
	if err := w.WriteEvent(EventDone, nil); err == nil {
		t.Error("write after close should fail")
	}
	if err := w.WriteKeepAlive(); err == nil {
		t.Error("keepalive after close should fail")
	}
}

type countingWriter struct {
	count atomic.Int32
	fail  bool
}

func (c *countingWriter) WriteKeepAlive() error {
	c.count.Add(1)
	if c.fail {
		return errors.New("connection closed")
	}
	return nil
}

func TestTickerKeepAlive(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("pings until stopped", func(t *testing.T) {
		w := &countingWriter{}
		k := NewTickerKeepAlive(5 * time.Millisecond)
		stopped := k.Start(w, logger)
		time.Sleep(50 * time.Millisecond)
		k.Stop()
		k.Stop()
		<-stopped
		if w.count.Load() == 0 {
			t.Error("no keep-alive sent")
		}
	})

	t.Run("stops on write failure", func(t *testing.T) {
		w := &countingWriter{fail: true}
		k := NewTickerKeepAlive(time.Millisecond)
		select {
		case <-k.Start(w, logger):
		case <-time.After(time.Second):
			t.Fatal("keep-alive did not stop after failed write")
		}
		if w.count.Load() != 1 {
			t.Errorf("writes = %d, want 1", w.count.Load())
		}
	})
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"default", 0, 10 * time.Second},
		{"negative", -time.Second, 10 * time.Second},
		{"configured", 3 * time.Second, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewConfig(tt.in).KeepAliveInterval; got != tt.want {
				t.Errorf("KeepAliveInterval = %v, want %v", got, tt.want)
			}
		})
	}
	if DefaultConfig().KeepAliveInterval != 10*time.Second {
		t.Error("unexpected default keep-alive interval")
	}
}
