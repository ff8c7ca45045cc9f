package spaceweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kpFeed = `[
	{"time_tag":"2023-04-15T11:58:00","kp_index":2,"estimated_kp":1.67},
	{"time_tag":"2023-04-15T11:59:00","kp_index":2,"estimated_kp":2.0},
	{"time_tag":"2023-04-15T12:00:00","kp_index":3,"estimated_kp":2.67}
]`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, kpPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kpFeed))
	}))
	defer srv.Close()

	now := time.Date(2023, time.April, 15, 12, 1, 0, 0, time.UTC)
	c := NewClient(srv.URL, srv.Client(), nil, clockwork.NewFakeClockAt(now))

	idx, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, idx.KIndex)
	assert.InDelta(t, 2.67, idx.EstimatedKp, 1e-9)
	assert.Equal(t, time.Date(2023, time.April, 15, 12, 0, 0, 0, time.UTC), idx.Observed)
	assert.Equal(t, now, idx.FetchedAt)
	assert.Equal(t, "NOAA SWPC", idx.Source)
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, nil)
	_, err := c.Fetch(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "status 503")
}

func TestFetchEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, nil)
	_, err := c.Fetch(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "empty feed")
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, nil)
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchBadTimeTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"time_tag":"noon-ish","kp_index":2,"estimated_kp":2.0}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, nil)
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, nil, nil, nil)
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, srv.Client(), nil, nil)
	_, err := c.Fetch(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCondition(t *testing.T) {
	tests := []struct {
		kIndex int
		want   string
	}{
		{0, "quiet"},
		{3, "quiet"},
		{4, "active"},
		{5, "storm"},
		{9, "storm"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Indices{KIndex: tt.kIndex}.Condition(), "k=%d", tt.kIndex)
	}
}

func TestAnnotation(t *testing.T) {
	idx := Indices{
		KIndex:      4,
		EstimatedKp: 3.67,
		Observed:    time.Date(2023, time.April, 15, 12, 0, 0, 0, time.UTC),
	}
	assert.Equal(t,
		"Planetary K-index 4 (active, est. Kp 3.67) observed 2023-04-15 12:00 UTC",
		idx.Annotation())
}
