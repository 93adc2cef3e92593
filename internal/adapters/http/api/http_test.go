package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulseworks/rppg/internal/adapters/http/api"
	"github.com/pulseworks/rppg/internal/adapters/repository"
	"github.com/pulseworks/rppg/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeStats struct{}

func (fakeStats) Stats() map[string]any {
	return map[string]any{"frames_processed": 42, "tracking_state": "tracking"}
}

func newTestMux(store repository.Store) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(store, fakeStats{}).Register(context.Background(), mux)
	return mux
}

func TestAPI(t *testing.T) {
	ctx := context.Background()

	Convey("Given an API server over a history store", t, func() {
		store := repository.NewHistory(repository.WithCapacity(8))
		mux := newTestMux(store)

		Convey("When GET /healthz", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then it reports ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"ok"`)
			})
		})

		Convey("When GET /api/stats", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

			Convey("Then the provider's stats are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "frames_processed")
			})
		})

		Convey("When GET /api/estimates with recorded history", func() {
			for i := 1; i <= 3; i++ {
				store.Add(ctx, model.Estimate{
					ID:      "e",
					Time:    time.Unix(int64(i), 0),
					MeanBpm: float64(60 + i),
					Valid:   true,
				})
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/estimates?limit=2", nil))

			Convey("Then the newest estimates come first", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got []model.Estimate
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].MeanBpm, ShouldEqual, 63)
				So(got[1].MeanBpm, ShouldEqual, 62)
			})
		})

		Convey("When GET /api/estimates with a bad limit", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/estimates?limit=zero", nil))

			Convey("Then it rejects the request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When GET /api/estimates with an oversized limit", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/estimates?limit=10000", nil))

			Convey("Then it rejects the request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})

		Convey("When GET /api/estimates/latest on an empty history", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/estimates/latest", nil))

			Convey("Then it reports not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When GET /api/estimates/latest with history", func() {
			store.Add(ctx, model.Estimate{ID: "last", Time: time.Unix(9, 0), MeanBpm: 71, Valid: true})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/estimates/latest", nil))

			Convey("Then the newest estimate is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got model.Estimate
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.MeanBpm, ShouldEqual, 71)
			})
		})

		Convey("When POST is used on a read-only route", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stats", nil))

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When GET /metrics", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then the Prometheus registry is exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
