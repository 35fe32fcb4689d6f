package avatar_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/startrack/internal/adapters/avatar"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHasher(t *testing.T) {
	Convey("Given an image server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/u/1" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte("png-bytes"))
		}))
		defer srv.Close()
		h := avatar.NewHasher(nil)

		Convey("Then the digest matches hashing the bytes directly", func() {
			got, err := h.Hash(context.Background(), srv.URL+"/u/1")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, avatar.Sum([]byte("png-bytes")))
			So(len(got), ShouldEqual, 64)
		})

		Convey("Then missing images are an error", func() {
			_, err := h.Hash(context.Background(), srv.URL+"/u/2")
			So(errors.Is(err, avatar.ErrFetch), ShouldBeTrue)
		})
	})
}
