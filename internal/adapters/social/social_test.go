package social_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/kafka-go"

	adapter "github.com/okian/startrack/internal/adapters/social"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestHTTPClient(t *testing.T) {
	Convey("Given an API server", t, func() {
		var lastBody string
		var lastQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			lastQuery = r.URL.RawQuery
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/2/tweets":
				b, _ := io.ReadAll(r.Body)
				lastBody = string(b)
				_, _ = w.Write([]byte(`{"data":{"id":"1001","text":"hi"}}`))
			case r.Method == http.MethodDelete && r.URL.Path == "/2/tweets/1001":
				_, _ = w.Write([]byte(`{"data":{"deleted":true}}`))
			case r.Method == http.MethodGet && r.URL.Path == "/2/users/42/tweets":
				_, _ = w.Write([]byte(`{"data":[{"id":"7","text":"old","created_at":"2024-06-01T10:00:00.000Z","public_metrics":{"like_count":2}}],"meta":{"next_token":"abc"}}`))
			case r.Method == http.MethodGet && r.URL.Path == "/2/tweets/search/recent":
				_, _ = w.Write([]byte(`{"meta":{}}`))
			default:
				w.Header().Set("x-rate-limit-limit", "50")
				w.Header().Set("x-rate-limit-remaining", "0")
				w.Header().Set("x-rate-limit-reset", "1717243200")
				w.WriteHeader(http.StatusTooManyRequests)
			}
		}))
		defer srv.Close()
		c := adapter.NewHTTPClient(srv.URL, "secret", "42")
		ctx := context.Background()

		Convey("Then publishing sends the text as JSON", func() {
			post, err := c.Publish(ctx, "hi")
			So(err, ShouldBeNil)
			So(post.ID, ShouldEqual, "1001")
			So(lastBody, ShouldEqual, `{"text":"hi"}`)
		})

		Convey("Then deleting succeeds", func() {
			So(c.Delete(ctx, "1001"), ShouldBeNil)
		})

		Convey("Then the timeline carries likes and the next token", func() {
			page, err := c.Timeline(ctx, "")
			So(err, ShouldBeNil)
			So(page.NextToken, ShouldEqual, "abc")
			So(len(page.Posts), ShouldEqual, 1)
			So(page.Posts[0].Likes, ShouldEqual, 2)
			So(page.Posts[0].CreatedAt.Year(), ShouldEqual, 2024)
		})

		Convey("Then search passes the query and token", func() {
			page, err := c.Search(ctx, "(from:me)", "tok")
			So(err, ShouldBeNil)
			So(page.Posts, ShouldBeEmpty)
			So(lastQuery, ShouldContainSubstring, "query=%28from%3Ame%29")
			So(lastQuery, ShouldContainSubstring, "next_token=tok")
		})

		Convey("Then a 429 becomes an exhausted RateLimitError", func() {
			err := c.Delete(ctx, "unknown")
			var rl *social.RateLimitError
			So(errors.As(err, &rl), ShouldBeTrue)
			So(errors.Is(err, social.ErrRateLimited), ShouldBeTrue)
			So(rl.Exhausted(), ShouldBeTrue)
			So(rl.Limit, ShouldEqual, 50)
			So(rl.Reset.Unix(), ShouldEqual, 1717243200)
		})
	})

	Convey("Given a 429 without quota headers", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := adapter.NewHTTPClient(srv.URL, "t", "1").Publish(context.Background(), "x")

		Convey("Then the error does not claim the quota is exhausted", func() {
			var rl *social.RateLimitError
			So(errors.As(err, &rl), ShouldBeTrue)
			So(rl.Exhausted(), ShouldBeFalse)
		})
	})
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	Convey("Given a kafka publisher", t, func() {
		w := &fakeWriter{}
		p := adapter.NewKafkaPublisher(w, nil)

		Convey("When a post is published", func() {
			post, err := p.Publish(context.Background(), "hello")

			Convey("Then one keyed JSON message is written", func() {
				So(err, ShouldBeNil)
				So(len(w.msgs), ShouldEqual, 1)
				So(string(w.msgs[0].Key), ShouldEqual, post.ID)
				var msg adapter.PostMessage
				So(json.Unmarshal(w.msgs[0].Value, &msg), ShouldBeNil)
				So(msg.Text, ShouldEqual, "hello")
				So(msg.ID, ShouldEqual, post.ID)
			})
		})

		Convey("When the broker fails", func() {
			w.err = errors.New("leader not available")
			_, err := p.Publish(context.Background(), "hello")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given the kafka writer constructor", t, func() {
		w := adapter.NewKafkaWriter([]string{"localhost:9092"}, "startrack.posts")
		So(w.Topic, ShouldEqual, "startrack.posts")
		So(w.RequiredAcks, ShouldEqual, kafka.RequireAll)
	})
}

func TestLogPublisher(t *testing.T) {
	Convey("Given a dry-run publisher", t, func() {
		post, err := adapter.NewLogPublisher(nil).Publish(context.Background(), "text")
		So(err, ShouldBeNil)
		So(post.ID, ShouldNotBeEmpty)
		So(post.Text, ShouldEqual, "text")
	})
}
