package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/drainwatch/internal/adapters/http/api"
	"github.com/okian/drainwatch/internal/adapters/repository"
	"github.com/okian/drainwatch/internal/adapters/repository/mocks"
	service "github.com/okian/drainwatch/internal/app"
	"github.com/okian/drainwatch/internal/domain/model"
	"github.com/okian/drainwatch/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeRunner struct {
	stats repository.Stats
	err   error
	calls int
}

func (f *fakeRunner) Rerun(context.Context) (repository.Stats, error) {
	f.calls++
	return f.stats, f.err
}

func newMux(store repository.Store, runner api.Runner) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(store, runner).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, target, http.NoBody))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var day = time.Date(2025, 10, 30, 0, 0, 0, 0, time.UTC)

func TestHealthAndMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	mux := newMux(mocks.NewMockStore(ctrl), nil)

	w := serve(mux, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(mux, http.MethodPost, "/healthz")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodGet, w.Header().Get("Allow"))

	w = serve(mux, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "drainwatch_batch_runs_total")
	assert.Contains(t, w.Body.String(), "drainwatch_http_requests_total")
}

func TestStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	mux := newMux(store, nil)

	t.Run("no run yet", func(t *testing.T) {
		store.EXPECT().Stats(gomock.Any()).Return(repository.Stats{}, repository.ErrNoRun)
		w := serve(mux, http.MethodGet, "/stats")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no_run", decodeError(t, w)["code"])
	})

	t.Run("stored run", func(t *testing.T) {
		store.EXPECT().Stats(gomock.Any()).Return(repository.Stats{
			RunID:        "run-1",
			Vessels:      2,
			StatusCounts: map[model.Status]int{model.StatusValid: 1},
		}, nil)
		w := serve(mux, http.MethodGet, "/stats")
		require.Equal(t, http.StatusOK, w.Code)

		var got repository.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, 2, got.Vessels)
		assert.Equal(t, 1, got.StatusCounts[model.StatusValid])
	})

	t.Run("store failure", func(t *testing.T) {
		store.EXPECT().Stats(gomock.Any()).Return(repository.Stats{}, errors.New("disk gone"))
		w := serve(mux, http.MethodGet, "/stats")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "disk gone", decodeError(t, w)["message"])
	})
}

func TestEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	mux := newMux(store, nil)

	events := []model.DrainEvent{{
		VesselID:    "V1",
		Start:       day.Add(time.Hour),
		End:         day.Add(time.Hour + time.Minute),
		VolumeLost:  12.5,
		Significant: true,
	}}

	t.Run("filtered by vessel", func(t *testing.T) {
		store.EXPECT().Events(gomock.Any(), "V1").Return(events, nil)
		w := serve(mux, http.MethodGet, "/events?vessel=V1")
		require.Equal(t, http.StatusOK, w.Code)

		var got []model.DrainEvent
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, 12.5, got[0].VolumeLost)
		assert.True(t, got[0].Start.Equal(events[0].Start))
	})

	t.Run("empty result encodes as array", func(t *testing.T) {
		store.EXPECT().Events(gomock.Any(), "").Return(nil, nil)
		w := serve(mux, http.MethodGet, "/events")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	})

	t.Run("wrong method", func(t *testing.T) {
		w := serve(mux, http.MethodDelete, "/events")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestMatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	mux := newMux(store, nil)

	t.Run("status filter", func(t *testing.T) {
		store.EXPECT().Matches(gomock.Any(), model.StatusSuspicious).Return([]model.MatchResult{{
			Ticket: model.Ticket{ID: "T9", VesselID: "V2", Date: day, DateValid: true, Amount: 40},
			Status: model.StatusSuspicious,
		}}, nil)
		w := serve(mux, http.MethodGet, "/matches?status=suspicious")
		require.Equal(t, http.StatusOK, w.Code)

		var got []model.MatchResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "T9", got[0].Ticket.ID)
		assert.Equal(t, model.StatusSuspicious, got[0].Status)
	})

	t.Run("all statuses", func(t *testing.T) {
		store.EXPECT().Matches(gomock.Any(), model.Status("")).Return(nil, nil)
		w := serve(mux, http.MethodGet, "/matches")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown status is rejected before the store", func(t *testing.T) {
		w := serve(mux, http.MethodGet, "/matches?status=bogus")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "bad_request", body["code"])
		assert.Contains(t, body["message"], "bogus")
	})
}

func TestDailyAndKPIs(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	mux := newMux(store, nil)

	pct := 5.0
	store.EXPECT().Daily(gomock.Any(), "V1").Return([]model.DailyAggregate{{
		VesselID:     "V1",
		Day:          day,
		TicketVolume: 20,
		DrainVolume:  10,
		Mismatch:     10,
		MismatchPct:  &pct,
	}}, nil)
	w := serve(mux, http.MethodGet, "/daily?vessel=V1")
	require.Equal(t, http.StatusOK, w.Code)

	var rows []model.DailyAggregate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].MismatchPct)
	assert.Equal(t, 5.0, *rows[0].MismatchPct)
	assert.Nil(t, rows[0].Capacity)

	store.EXPECT().KPIs(gomock.Any()).Return(model.KPIs{TotalUnaccounted: 10, SuspiciousDays: 1, TotalDays: 4, SuspiciousDayRate: 0.25}, nil)
	w = serve(mux, http.MethodGet, "/kpis")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_unaccounted":10,"suspicious_days":1,"total_days":4,"suspicious_day_rate":0.25}`, w.Body.String())

	store.EXPECT().KPIs(gomock.Any()).Return(model.KPIs{}, fmt.Errorf("read: %w", repository.ErrNoRun))
	w = serve(mux, http.MethodGet, "/kpis")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRuns(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	t.Run("disabled without a runner", func(t *testing.T) {
		w := serve(newMux(store, nil), http.MethodPost, "/runs")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "runs_disabled", decodeError(t, w)["code"])
	})

	t.Run("successful run", func(t *testing.T) {
		runner := &fakeRunner{stats: repository.Stats{RunID: "abc", Events: 3}}
		w := serve(newMux(store, runner), http.MethodPost, "/runs")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, runner.calls)

		var got repository.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "abc", got.RunID)
		assert.Equal(t, 3, got.Events)
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		runner := &fakeRunner{}
		w := serve(newMux(store, runner), http.MethodGet, "/runs")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Zero(t, runner.calls)
	})

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"run in progress", service.ErrRunInProgress, http.StatusConflict},
		{"ingest failure", fmt.Errorf("%w: open readings", service.ErrIngest), http.StatusUnprocessableEntity},
		{"cancelled", fmt.Errorf("%w: %w", service.ErrCancelled, context.Canceled), http.StatusServiceUnavailable},
		{"publish failure", fmt.Errorf("%w: boom", service.ErrPublish), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(newMux(store, &fakeRunner{err: tc.err}), http.MethodPost, "/runs")
			assert.Equal(t, tc.code, w.Code)
		})
	}
}
