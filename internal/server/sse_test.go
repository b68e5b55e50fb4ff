package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEWriter_NumbersEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.WriteStage("analyze"))
	require.NoError(t, sse.WriteComplete("done"))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"id: 1\nevent: stage\ndata: {\"stage\":\"analyze\"}\n\n"+
			"id: 2\nevent: complete\ndata: {\"status\":\"done\"}\n\n",
		rec.Body.String())
}

func TestSSEWriter_UnencodableData(t *testing.T) {
	sse, err := NewSSEWriter(httptest.NewRecorder())
	require.NoError(t, err)
	assert.Error(t, sse.WriteEvent(EventResult, make(chan int)))
}

type brokenStream struct {
	*httptest.ResponseRecorder
	writes int
}

func (b *brokenStream) Write(p []byte) (int, error) {
	b.writes++
	return 0, errors.New("connection reset")
}

func TestSSEWriter_FirstWriteErrorSticks(t *testing.T) {
	w := &brokenStream{ResponseRecorder: httptest.NewRecorder()}
	sse, err := NewSSEWriter(w)
	require.NoError(t, err)

	first := sse.WriteStage("analyze")
	require.Error(t, first)
	assert.Equal(t, first, sse.WriteComplete("done"))
	assert.Equal(t, 1, w.writes)
}

type plainWriter struct{ http.ResponseWriter }

func TestNewSSEWriter_RequiresFlusher(t *testing.T) {
	_, err := NewSSEWriter(plainWriter{httptest.NewRecorder()})
	assert.ErrorIs(t, err, errStreamingUnsupported)
}

func TestSSEWriter_Heartbeat(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	stop := sse.Heartbeat(5 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	stop()
	stop()

	sse.mu.Lock()
	body := rec.Body.String()
	sse.mu.Unlock()
	assert.True(t, strings.HasPrefix(body, ": ping\n\n"))
}
