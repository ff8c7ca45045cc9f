package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bearwave/internal/config"
	"bearwave/internal/pipeline"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFilterByName(t *testing.T) {
	analyses := []pipeline.Analysis{
		{Name: "Guam campaign window", Kind: "fof2"},
		{Name: "Darwin full month", Kind: "fof2"},
	}

	got := filterByName(analyses, "guam campaign window")
	require.Len(t, got, 1)
	assert.Equal(t, "Guam campaign window", got[0].Name)

	assert.Empty(t, filterByName(analyses, "atlantis"))
}

func TestFetchSpaceWeatherDisabled(t *testing.T) {
	annotation, degraded := fetchSpaceWeather(context.Background(),
		config.SpaceWeatherConfig{Enabled: false, Timeout: time.Second}, false, quietLogger())

	assert.Empty(t, annotation)
	assert.Empty(t, degraded)
}

func TestFetchSpaceWeatherSkipFlag(t *testing.T) {
	annotation, degraded := fetchSpaceWeather(context.Background(),
		config.SpaceWeatherConfig{Enabled: true, Timeout: time.Second}, true, quietLogger())

	assert.Empty(t, annotation)
	assert.Empty(t, degraded)
}

func TestFetchSpaceWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"time_tag":"2023-04-15T12:00:00","kp_index":2,"estimated_kp":1.67}]`))
	}))
	defer srv.Close()

	annotation, degraded := fetchSpaceWeather(context.Background(),
		config.SpaceWeatherConfig{Enabled: true, BaseURL: srv.URL, Timeout: 5 * time.Second},
		false, quietLogger())

	assert.Contains(t, annotation, "Planetary K-index 2")
	assert.Empty(t, degraded)
}

func TestFetchSpaceWeatherUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	annotation, degraded := fetchSpaceWeather(context.Background(),
		config.SpaceWeatherConfig{Enabled: true, BaseURL: srv.URL, Timeout: time.Second},
		false, quietLogger())

	assert.Empty(t, annotation)
	require.Len(t, degraded, 1)
	assert.Contains(t, degraded[0], "space weather unavailable")
}
