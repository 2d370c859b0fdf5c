package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	stdimage "image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petspace/petemotion/internal/adapters/repository"
	service "github.com/petspace/petemotion/internal/app"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func pngBase64(w, h int) string {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

var sampleScores = emotion.Scores{Happiness: 0.5, Sadness: 0.056, Anxiety: 0.056, Sleepiness: 0, Curiosity: 0.388}

type fakeAnalyzer struct {
	calls    atomic.Int32
	lastMIME string
	result   scoring.Result
}

func (f *fakeAnalyzer) Analyze(_ context.Context, img scoring.Image, _ scoring.Credentials) (scoring.Result, error) {
	f.calls.Add(1)
	f.lastMIME = img.MIMEType
	return f.result, nil
}

func (f *fakeAnalyzer) Providers() []string { return []string{"vision", "gemini"} }

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	types []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, path string, _ []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, path)
	f.types = append(f.types, contentType)
	return "https://cdn.example/" + path, nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

type failingStore struct {
	*repository.MemoryStore
}

func (failingStore) Insert(context.Context, model.AnalysisRecord) (model.AnalysisRecord, error) { //nolint:gocritic // hugeParam: test double
	return model.AnalysisRecord{}, errors.New("connection refused")
}

type capturePublisher struct {
	mu     sync.Mutex
	events []model.AnalysisEvent
	closed bool
	delay  time.Duration
}

func (c *capturePublisher) Publish(_ context.Context, e model.AnalysisEvent) error { //nolint:gocritic // hugeParam: test double
	time.Sleep(c.delay)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *capturePublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestService_Analyze(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return time.UnixMilli(1_714_557_600_000) }

	Convey("Given a service with fake collaborators", t, func() {
		analyzer := &fakeAnalyzer{result: scoring.Result{Scores: sampleScores, Provider: "vision"}}
		uploader := &fakeUploader{}
		history := repository.NewMemoryStore()
		svc := service.New(analyzer, uploader, history,
			service.WithClock(clock),
			service.WithCredentials(map[string]bool{"vision_api_key": true, "gemini_api_key": false}),
		)

		Convey("When required fields are missing", func() {
			_, err1 := svc.Analyze(ctx, service.Request{UserID: "user-1"})
			_, err2 := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "  "})

			Convey("Then ErrMissingFields is returned and nothing runs", func() {
				So(errors.Is(err1, service.ErrMissingFields), ShouldBeTrue)
				So(errors.Is(err2, service.ErrMissingFields), ShouldBeTrue)
				So(err1.Error(), ShouldEqual, "Missing required fields: imageBase64, userId")
				So(analyzer.calls.Load(), ShouldEqual, 0)
				So(uploader.count(), ShouldEqual, 0)
			})
		})

		Convey("When the image is not decodable", func() {
			_, err := svc.Analyze(ctx, service.Request{ImageBase64: "bm90IGFuIGltYWdl", UserID: "user-1"})

			Convey("Then ErrInvalidImage is returned before upload", func() {
				So(errors.Is(err, service.ErrInvalidImage), ShouldBeTrue)
				So(uploader.count(), ShouldEqual, 0)
			})
		})

		Convey("When a valid request arrives", func() {
			rec, err := svc.Analyze(ctx, service.Request{
				ImageBase64: pngBase64(8, 8), UserID: "user-1", PetID: "pet-9", Memo: "after walk",
			})

			Convey("Then the record is stored with the provider result", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldNotBeEmpty)
				So(rec.UserID, ShouldEqual, "user-1")
				So(*rec.PetID, ShouldEqual, "pet-9")
				So(*rec.Memo, ShouldEqual, "after walk")
				So(rec.Provider, ShouldEqual, "vision")
				So(rec.EmotionAnalysis, ShouldResemble, sampleScores)
				So(rec.ImageURL, ShouldEqual, "https://cdn.example/emotions/user-1/1714557600000.jpg")
				So(uploader.types, ShouldResemble, []string{"image/jpeg"})
				So(analyzer.lastMIME, ShouldEqual, "image/png")

				stored, err := svc.Get(ctx, rec.ID)
				So(err, ShouldBeNil)
				So(stored.ID, ShouldEqual, rec.ID)
			})

			Convey("Then stats count it without exposing credential values", func() {
				stats := svc.GetStats()
				So(stats["analyses"], ShouldResemble, map[string]int64{"vision": 1})
				So(stats["credentials"], ShouldResemble, []string{"vision_api_key"})
				So(stats["providers"], ShouldResemble, []string{"vision", "gemini"})
				So(stats["historyRecords"], ShouldEqual, 1)
				So(stats["queueLength"], ShouldEqual, 1)
			})
		})

		Convey("When optional fields are empty", func() {
			rec, err := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-1"})

			Convey("Then they are stored as null", func() {
				So(err, ShouldBeNil)
				So(rec.PetID, ShouldBeNil)
				So(rec.Memo, ShouldBeNil)
			})
		})

		Convey("When an idempotency key is repeated", func() {
			req := service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-1", IdempotencyKey: "abc"}
			first, err := svc.Analyze(ctx, req)
			So(err, ShouldBeNil)
			second, err := svc.Analyze(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then the stored record is replayed without new work", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(analyzer.calls.Load(), ShouldEqual, 1)
				So(uploader.count(), ShouldEqual, 1)
				So(svc.GetStats()["replays"], ShouldEqual, int64(1))
			})

			Convey("Then another user with the same key gets a fresh analysis", func() {
				other, err := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-2", IdempotencyKey: "abc"})
				So(err, ShouldBeNil)
				So(other.ID, ShouldNotEqual, first.ID)
				So(analyzer.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the record is unknown", func() {
			_, err := svc.Get(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an uploader that fails", t, func() {
		analyzer := &fakeAnalyzer{result: scoring.Result{Scores: sampleScores, Provider: "vision"}}
		svc := service.New(analyzer, &fakeUploader{err: errors.New("bucket missing")}, repository.NewMemoryStore())

		_, err := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-1"})

		Convey("Then ErrUpload is returned and no provider is called", func() {
			So(errors.Is(err, service.ErrUpload), ShouldBeTrue)
			So(analyzer.calls.Load(), ShouldEqual, 0)
		})
	})

	Convey("Given a history store that fails", t, func() {
		analyzer := &fakeAnalyzer{result: scoring.Result{Scores: sampleScores, Provider: "vision"}}
		svc := service.New(analyzer, &fakeUploader{}, failingStore{repository.NewMemoryStore()})

		_, err := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-1", IdempotencyKey: "k"})

		Convey("Then ErrSave is returned", func() {
			So(errors.Is(err, service.ErrSave), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Failed to save analysis result")
		})
	})

	Convey("Given a full event queue", t, func() {
		analyzer := &fakeAnalyzer{result: scoring.Result{Scores: sampleScores, Provider: "vision"}}
		svc := service.New(analyzer, &fakeUploader{}, repository.NewMemoryStore(), service.WithQueueSize(1))

		_, err1 := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-1"})
		_, err2 := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-2"})

		Convey("Then the request still succeeds and the event is counted as dropped", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(svc.GetStats()["droppedEvents"], ShouldEqual, int64(1))
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with a capturing publisher", t, func() {
		pub := &capturePublisher{}
		analyzer := &fakeAnalyzer{result: scoring.Result{Scores: sampleScores, Provider: "gemini"}}
		svc := service.New(analyzer, &fakeUploader{}, repository.NewMemoryStore(),
			service.WithPublisher(pub),
			service.WithWorkerCount(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.GetStats()["started"], ShouldEqual, true)

		Convey("When an analysis completes and the service stops", func() {
			rec, err := svc.Analyze(ctx, service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-1"})
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the event was published and the publisher closed", func() {
				So(pub.count(), ShouldEqual, 1)
				So(pub.events[0].RecordID, ShouldEqual, rec.ID)
				So(pub.events[0].Dominant, ShouldEqual, "happiness")
				So(pub.closed, ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("Then stopping again is a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_StopDrainsAfterStartContextEnds(t *testing.T) {
	Convey("Given a service started with a context that is later cancelled", t, func() {
		startCtx, cancel := context.WithCancel(context.Background())
		pub := &capturePublisher{delay: 20 * time.Millisecond}
		analyzer := &fakeAnalyzer{result: scoring.Result{Scores: sampleScores, Provider: "vision"}}
		svc := service.New(analyzer, &fakeUploader{}, repository.NewMemoryStore(),
			service.WithPublisher(pub),
			service.WithWorkerCount(1),
		)
		So(svc.Start(startCtx), ShouldBeNil)

		Convey("When events are still queued at cancellation and Stop runs", func() {
			for i := 0; i < 10; i++ {
				_, err := svc.Analyze(context.Background(), service.Request{ImageBase64: pngBase64(4, 4), UserID: "user-1"})
				So(err, ShouldBeNil)
			}
			cancel()
			So(svc.Stop(context.Background()), ShouldBeNil)

			Convey("Then every queued event is still published", func() {
				So(pub.count(), ShouldEqual, 10)
				So(pub.closed, ShouldBeTrue)
			})
		})
		cancel()
	})
}
