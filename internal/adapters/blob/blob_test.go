package blob_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/startrack/internal/adapters/blob"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileStore(t *testing.T) {
	Convey("Given a file store", t, func() {
		s, err := blob.NewFileStore(t.TempDir())
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When a blob is saved", func() {
			So(s.Save(ctx, "2024/1-2@3.cbor.zst", []byte("payload")), ShouldBeNil)

			Convey("Then it can be read and listed without temp files", func() {
				got, err := s.Load(ctx, "2024/1-2@3.cbor.zst")
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, "payload")

				keys, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(keys, ShouldResemble, []string{"2024/1-2@3.cbor.zst"})
			})

			Convey("And overwritten", func() {
				So(s.Save(ctx, "2024/1-2@3.cbor.zst", []byte("v2")), ShouldBeNil)
				got, _ := s.Load(ctx, "2024/1-2@3.cbor.zst")
				So(string(got), ShouldEqual, "v2")
			})
		})

		Convey("When a key escapes the root", func() {
			err := s.Save(ctx, "../outside", []byte("x"))
			So(errors.Is(err, blob.ErrInvalidKey), ShouldBeTrue)
		})
	})
}
