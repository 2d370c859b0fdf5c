package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/petspace/petemotion/internal/config"
	"github.com/petspace/petemotion/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func pngBase64() string {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New(context.Background())
	cfg.StorageDir = t.TempDir()
	cfg.EventWorkerCount = 1
	return cfg
}

func TestBuildService(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()

	convey.Convey("Given the default configuration", t, func() {
		cfg := testConfig(t)

		convey.Convey("When the service is wired", func() {
			svc, closeDeps, err := buildService(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			defer closeDeps()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			mux := newMux(ctx, cfg, svc)

			convey.Convey("Then an analysis runs end to end through the fallback", func() {
				body := `{"imageBase64":"` + pngBase64() + `","userId":"user-1"}`
				req := httptest.NewRequest(http.MethodPost, "/analyze-emotion", strings.NewReader(body))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var out struct {
					Success bool `json:"success"`
					Data    struct {
						ID       string `json:"id"`
						ImageURL string `json:"image_url"`
						Provider string `json:"provider"`
					} `json:"data"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &out), convey.ShouldBeNil)
				convey.So(out.Success, convey.ShouldBeTrue)
				convey.So(out.Data.Provider, convey.ShouldEqual, "fallback")
				convey.So(out.Data.ImageURL, convey.ShouldStartWith, "http://localhost:9080/images/emotions/user-1/")

				img := httptest.NewRecorder()
				mux.ServeHTTP(img, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(out.Data.ImageURL, "http://localhost:9080"), http.NoBody))
				convey.So(img.Code, convey.ShouldEqual, http.StatusOK)

				hist := httptest.NewRecorder()
				mux.ServeHTTP(hist, httptest.NewRequest(http.MethodGet, "/history/"+out.Data.ID, http.NoBody))
				convey.So(hist.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the docs routes are registered", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})

	convey.Convey("Given a configuration with provider credentials", t, func() {
		cfg := testConfig(t)
		cfg.GeminiAPIKey = "g-key"
		cfg.OllamaURL = "http://localhost:11434"

		convey.Convey("Then providers are built in priority order", func() {
			providers, err := buildProviders(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			names := make([]string, 0, len(providers))
			for _, p := range providers {
				names = append(names, p.Name())
			}
			convey.So(names, convey.ShouldResemble, []string{"vision", "gemini", "openai", "ollama"})
		})
	})

	convey.Convey("Given no gemini or ollama credentials", t, func() {
		providers, err := buildProviders(ctx, testConfig(t), log)

		convey.Convey("Then only the clients that need no key at build time are present", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(providers, convey.ShouldHaveLength, 2)
		})
	})

	convey.Convey("Given redis idempotency", t, func() {
		mr, err := miniredis.Run()
		convey.So(err, convey.ShouldBeNil)
		defer mr.Close()

		cfg := testConfig(t)
		cfg.IdempotencyBackend = config.IdempotencyRedis
		cfg.RedisAddr = mr.Addr()

		convey.Convey("Then the service wires against it", func() {
			svc, closeDeps, err := buildService(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc, convey.ShouldNotBeNil)
			closeDeps()
		})
	})

	convey.Convey("Given an unreachable redis", t, func() {
		cfg := testConfig(t)
		cfg.IdempotencyBackend = config.IdempotencyRedis
		cfg.RedisAddr = "127.0.0.1:1"

		convey.Convey("Then wiring fails", func() {
			_, _, err := buildService(ctx, cfg, log)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Updating system metrics does not panic", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
	})
}
