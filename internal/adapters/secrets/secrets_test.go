package secrets_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/startrack/internal/adapters/secrets"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAccessor(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "github-token"), []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	Convey("Given a secrets directory", t, func() {
		a := secrets.NewAccessor(dir)

		Convey("Then file secrets are trimmed", func() {
			v, err := a.Get(ctx, "github-token")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "from-file")
		})

		Convey("Then missing secrets report ErrNotFound", func() {
			_, err := a.Get(ctx, "social-token")
			So(errors.Is(err, secrets.ErrNotFound), ShouldBeTrue)

			v, err := a.Optional(ctx, "social-token")
			So(err, ShouldBeNil)
			So(v, ShouldBeEmpty)
		})
	})

	t.Setenv("STARTRACK_SECRET_GITHUB_TOKEN", "from-env")
	Convey("Given the same secret in the environment", t, func() {
		v, err := secrets.NewAccessor(dir).Get(ctx, "github-token")

		Convey("Then the environment wins", func() {
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "from-env")
		})
	})
}
