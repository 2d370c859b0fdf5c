package loadtest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petspace/petemotion/internal/adapters/http/api"
	"github.com/petspace/petemotion/internal/adapters/repository"
	"github.com/petspace/petemotion/internal/adapters/storage"
	service "github.com/petspace/petemotion/internal/app"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/internal/loadtest"
	"github.com/petspace/petemotion/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithOptions(logger.Options{Output: io.Discard})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	chain := scoring.NewChain(nil, scoring.NewFallback(scoring.WithRandomSource(scoring.NewLockedRandom(3))))
	svc := service.New(chain,
		storage.NewFileUploader(t.TempDir(), "http://localhost/images"),
		repository.NewMemoryStore(),
		service.WithWorkerCount(1),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Stop(ctx) })

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running service with only the fallback provider", t, func() {
		srv := newTestServer(t)
		out := filepath.Join(t.TempDir(), "out", "results.json")
		cfg := &loadtest.Config{
			BaseURL:     srv.URL,
			Requests:    12,
			Workers:     4,
			Timeout:     5 * time.Second,
			ImageSize:   16,
			ReplayEvery: 3,
			Seed:        1,
			OutputFile:  out,
		}

		Convey("When a load run completes", func() {
			stats, err := loadtest.Run(context.Background(), cfg)

			Convey("Then every request succeeds and matches history", func() {
				So(err, ShouldBeNil)
				So(stats.RequestsGenerated, ShouldEqual, 12)
				So(stats.RequestsSucceeded, ShouldEqual, 12)
				So(stats.RequestsFailed, ShouldEqual, 0)
				So(stats.Replays, ShouldEqual, 4)
				So(stats.ReplayMismatches, ShouldEqual, 0)
				So(stats.HistoryChecked, ShouldEqual, 12)
				So(stats.HistoryMismatches, ShouldEqual, 0)
				So(stats.Providers[scoring.FallbackName], ShouldEqual, 12)
			})

			Convey("Then the results file lists each request", func() {
				data, rerr := os.ReadFile(out)
				So(rerr, ShouldBeNil)
				var results []loadtest.Result
				So(json.Unmarshal(data, &results), ShouldBeNil)
				So(results, ShouldHaveLength, 12)
				So(results[5].Stored, ShouldNotBeNil)
				So(results[5].Stored.ID, ShouldEqual, results[5].Analysis.ID)
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	Convey("Given a service that is down", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := loadtest.Run(context.Background(), &loadtest.Config{BaseURL: srv.URL, Requests: 1, Workers: 1, Timeout: time.Second})

		Convey("Then the run stops at the health check", func() {
			So(errors.Is(err, loadtest.ErrUnhealthy), ShouldBeTrue)
		})
	})

	Convey("Given a service that answers with a broken distribution", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/analyze-emotion", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"success":true,"data":{"id":"a1","emotion_analysis":{"happiness":0.9,"sadness":0.9,"anxiety":0,"sleepiness":0,"curiosity":0},"provider":"fake"}}`)
		})
		mux.HandleFunc("/history/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"id":"a1","emotion_analysis":{"happiness":0.9,"sadness":0.9,"anxiety":0,"sleepiness":0,"curiosity":0},"provider":"fake"}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		stats, err := loadtest.Run(context.Background(), &loadtest.Config{BaseURL: srv.URL, Requests: 2, Workers: 2, Timeout: time.Second})

		Convey("Then verification fails", func() {
			So(errors.Is(err, loadtest.ErrVerification), ShouldBeTrue)
			So(stats.InvalidScores, ShouldEqual, 2)
			So(stats.RequestsSucceeded, ShouldEqual, 2)
		})
	})
}
