package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/petspace/petemotion/internal/adapters/provider/openai"
	"github.com/petspace/petemotion/internal/adapters/provider/reply"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var img = scoring.Image{Data: []byte("jpeg-bytes"), MIMEType: "image/png"}

func fakeServer(content string, status int, got *goopenai.ChatCompletionRequest, auth *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Model: "gpt-4o-mini",
			Choices: []goopenai.ChatCompletionChoice{{
				Message: goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
}

func TestClient_Score(t *testing.T) {
	Convey("Given a fake OpenAI-compatible server", t, func() {
		var got goopenai.ChatCompletionRequest
		var auth string
		srv := fakeServer("```json\n{\"happiness\":0.2,\"sadness\":0.2,\"anxiety\":0.2,\"sleepiness\":0.2,\"curiosity\":0.2}\n```", 0, &got, &auth)
		defer srv.Close()

		c := openai.New("o-key", openai.WithBaseURL(srv.URL+"/v1"), openai.WithModel("gpt-4o-mini"))
		scores, err := c.Score(context.Background(), img)

		Convey("Then the reply is parsed", func() {
			So(err, ShouldBeNil)
			So(scores, ShouldResemble, emotion.Uniform())
		})

		Convey("Then the request carries prompt and image as a data URL", func() {
			So(auth, ShouldEqual, "Bearer o-key")
			So(got.Model, ShouldEqual, "gpt-4o-mini")
			So(got.Messages, ShouldHaveLength, 1)
			parts := got.Messages[0].MultiContent
			So(parts, ShouldHaveLength, 2)
			So(parts[0].Text, ShouldEqual, reply.Prompt)
			So(parts[1].ImageURL.URL, ShouldStartWith, "data:image/png;base64,")
		})

		Convey("Then the provider identifies itself", func() {
			So(c.Name(), ShouldEqual, "openai")
			So(c.Credential(), ShouldEqual, "openai_api_key")
		})
	})

	Convey("Given an empty reply", t, func() {
		srv := fakeServer("   ", 0, nil, nil)
		defer srv.Close()

		_, err := openai.New("k", openai.WithBaseURL(srv.URL+"/v1")).Score(context.Background(), img)
		So(errors.Is(err, openai.ErrEmptyReply), ShouldBeTrue)
	})

	Convey("Given an error status", t, func() {
		srv := fakeServer("", http.StatusTooManyRequests, nil, nil)
		defer srv.Close()

		_, err := openai.New("k", openai.WithBaseURL(srv.URL+"/v1")).Score(context.Background(), img)
		So(errors.Is(err, openai.ErrRequestFailed), ShouldBeTrue)
	})
}
