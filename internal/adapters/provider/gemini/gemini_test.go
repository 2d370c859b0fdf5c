package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/petspace/petemotion/internal/adapters/provider/gemini"
	"github.com/petspace/petemotion/internal/adapters/provider/reply"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var img = scoring.Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg"}

type fakeGemini struct {
	mu     sync.Mutex
	path   string
	body   map[string]any
	status int
	text   string
	empty  bool
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.path = r.URL.Path
	_ = json.Unmarshal(raw, &f.body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
		return
	}
	if f.empty {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": f.text}},
			},
		}},
	})
}

func newClient(srv *httptest.Server, opts ...gemini.Option) *gemini.Client {
	opts = append([]gemini.Option{gemini.WithBaseURL(srv.URL), gemini.WithHTTPClient(srv.Client())}, opts...)
	c, err := gemini.New(context.Background(), "g-key", opts...)
	So(err, ShouldBeNil)
	return c
}

func TestClient_Score(t *testing.T) {
	Convey("Given a fake Gemini endpoint that answers with prose and JSON", t, func() {
		fake := &fakeGemini{text: "Here is my analysis:\n{\"happiness\": 0.6, \"sadness\": 0.1, \"anxiety\": 0.1, \"sleepiness\": 0.1, \"curiosity\": 0.1}\nHope this helps."}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := newClient(srv)
		scores, err := c.Score(context.Background(), img)

		Convey("Then the scores are parsed from the reply", func() {
			So(err, ShouldBeNil)
			So(scores, ShouldResemble, emotion.Scores{Happiness: 0.6, Sadness: 0.1, Anxiety: 0.1, Sleepiness: 0.1, Curiosity: 0.1})
		})

		Convey("Then the request carries the model, prompt, image and generation settings", func() {
			So(fake.path, ShouldEndWith, "models/gemini-1.5-flash:generateContent")

			body, _ := json.Marshal(fake.body)
			s := string(body)
			So(s, ShouldContainSubstring, `"mimeType":"image/jpeg"`)
			So(s, ShouldContainSubstring, `"temperature":0.4`)
			So(s, ShouldContainSubstring, `"topK":32`)
			So(s, ShouldContainSubstring, `"maxOutputTokens":4096`)
			So(s, ShouldContainSubstring, "HARM_CATEGORY_DANGEROUS_CONTENT")
			So(s, ShouldContainSubstring, "BLOCK_MEDIUM_AND_ABOVE")
			So(strings.Contains(s, "sleepiness"), ShouldBeTrue)
		})

		Convey("Then the provider identifies itself", func() {
			So(c.Name(), ShouldEqual, "gemini")
			So(c.Credential(), ShouldEqual, "gemini_api_key")
		})
	})

	Convey("Given a configured model and threshold", t, func() {
		fake := &fakeGemini{text: `{"happiness":1}`}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := newClient(srv, gemini.WithModel("gemini-2.0-flash"), gemini.WithSafetyThreshold("BLOCK_ONLY_HIGH"))
		_, err := c.Score(context.Background(), img)

		Convey("Then they are used", func() {
			So(err, ShouldBeNil)
			So(fake.path, ShouldEndWith, "models/gemini-2.0-flash:generateContent")
			body, _ := json.Marshal(fake.body)
			So(string(body), ShouldContainSubstring, "BLOCK_ONLY_HIGH")
		})
	})

	Convey("Given a reply without a JSON block", t, func() {
		srv := httptest.NewServer(&fakeGemini{text: "I cannot tell what animal this is."})
		defer srv.Close()

		_, err := newClient(srv).Score(context.Background(), img)
		So(errors.Is(err, reply.ErrNoJSON), ShouldBeTrue)
	})

	Convey("Given a reply without candidates", t, func() {
		srv := httptest.NewServer(&fakeGemini{empty: true})
		defer srv.Close()

		_, err := newClient(srv).Score(context.Background(), img)
		So(errors.Is(err, gemini.ErrEmptyReply), ShouldBeTrue)
	})

	Convey("Given a server error", t, func() {
		srv := httptest.NewServer(&fakeGemini{status: http.StatusInternalServerError})
		defer srv.Close()

		_, err := newClient(srv).Score(context.Background(), img)
		So(errors.Is(err, gemini.ErrRequestFailed), ShouldBeTrue)
	})
}
