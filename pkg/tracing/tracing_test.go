package tracing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/tracing"
)

func init() {
	_ = logger.Init()
}

func TestSetupDisabled(t *testing.T) {
	Convey("Given tracing disabled", t, func() {
		shutdown, err := tracing.Setup(context.Background(), tracing.Config{}, logger.Get())

		Convey("Then a no-op provider is installed", func() {
			So(err, ShouldBeNil)
			So(shutdown(context.Background()), ShouldBeNil)
			_, span := otel.Tracer("t").Start(context.Background(), "x")
			So(span.SpanContext().IsValid(), ShouldBeFalse)
		})
	})
}

func TestPropagation(t *testing.T) {
	Convey("Given a recording provider", t, func() {
		rec := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		defer otel.SetTracerProvider(prev)
		tracing.SetPropagator()

		var gotParent string
		backend := httptest.NewServer(tracing.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotParent = r.Header.Get("traceparent")
			w.WriteHeader(http.StatusNoContent)
		})))
		defer backend.Close()

		Convey("When a wrapped client calls an instrumented server", func() {
			client := tracing.WrapHTTPClient(backend.Client())
			resp, err := client.Get(backend.URL + "/ping")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("Then the trace context crosses the wire", func() {
				So(gotParent, ShouldNotBeEmpty)
				spans := rec.Ended()
				So(len(spans), ShouldEqual, 2)
				So(spans[0].SpanContext().TraceID(), ShouldEqual, spans[1].SpanContext().TraceID())
			})
		})
	})
}
