package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"

	"github.com/petspace/petemotion/internal/adapters/provider/ollama"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var img = scoring.Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg"}

func fakeOllama(content string, status int, got *api.ChatRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"model \"llava\" not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "llava",
			Message: api.Message{Role: "assistant", Content: content},
			Done:    true,
		})
	}))
}

func TestClient_Score(t *testing.T) {
	Convey("Given a fake Ollama server", t, func() {
		var got api.ChatRequest
		srv := fakeOllama(`The dog looks sleepy. {"happiness":0.1,"sadness":0.1,"anxiety":0.1,"sleepiness":0.6,"curiosity":0.1}`, 0, &got)
		defer srv.Close()

		c, err := ollama.New(srv.URL+"/api/chat", ollama.WithModel("llava"))
		So(err, ShouldBeNil)
		scores, err := c.Score(context.Background(), img)

		Convey("Then the reply is parsed", func() {
			So(err, ShouldBeNil)
			So(scores.Dominant(), ShouldEqual, "sleepiness")
			So(scores.Sleepiness, ShouldEqual, 0.6)
		})

		Convey("Then the request is a single non-streamed turn with the image", func() {
			So(got.Model, ShouldEqual, "llava")
			So(got.Stream, ShouldNotBeNil)
			So(*got.Stream, ShouldBeFalse)
			So(got.Messages, ShouldHaveLength, 1)
			So(got.Messages[0].Images, ShouldHaveLength, 1)
			So([]byte(got.Messages[0].Images[0]), ShouldResemble, img.Data)
		})

		Convey("Then the provider identifies itself", func() {
			So(c.Name(), ShouldEqual, "ollama")
			So(c.Credential(), ShouldEqual, "ollama_url")
		})
	})

	Convey("Given a missing model", t, func() {
		srv := fakeOllama("", http.StatusNotFound, nil)
		defer srv.Close()

		c, err := ollama.New(srv.URL)
		So(err, ShouldBeNil)
		_, err = c.Score(context.Background(), img)
		So(errors.Is(err, ollama.ErrRequestFailed), ShouldBeTrue)
	})

	Convey("Given an empty reply", t, func() {
		srv := fakeOllama("", 0, nil)
		defer srv.Close()

		c, _ := ollama.New(srv.URL)
		_, err := c.Score(context.Background(), img)
		So(errors.Is(err, ollama.ErrEmptyReply), ShouldBeTrue)
	})

	Convey("Given an invalid URL", t, func() {
		_, err := ollama.New("localhost")
		So(errors.Is(err, ollama.ErrInvalidURL), ShouldBeTrue)
	})

	Convey("Uniform replies stay uniform", t, func() {
		srv := fakeOllama(`{}`, 0, nil)
		defer srv.Close()

		c, _ := ollama.New(srv.URL)
		scores, err := c.Score(context.Background(), img)
		So(err, ShouldBeNil)
		So(scores, ShouldResemble, emotion.Uniform())
	})
}
