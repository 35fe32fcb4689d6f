package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When building a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithRunBuckets([]float64{1, 60}),
				WithRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.latencyBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.runBuckets, ShouldResemble, []float64{1, 60})
			})

			Convey("And metrics should be registered on the given registry", func() {
				manager.runsTotal.WithLabelValues("update", "ok").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "test_namespace_test_subsystem_runs_total") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithLatencyBuckets(nil),
				WithRunBuckets(nil),
				WithRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "startrack")
				So(manager.subsystem, ShouldEqual, "tracker")
				So(manager.latencyBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.runBuckets, ShouldHaveLength, 10)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording job runs", func() {
			before := testutil.ToFloat64(globalManager.runsTotal.WithLabelValues("update", "ok"))
			RecordRun("update", "ok", 2*time.Second)

			Convey("Then the run counter should increase", func() {
				So(testutil.ToFloat64(globalManager.runsTotal.WithLabelValues("update", "ok")), ShouldEqual, before+1)
			})
		})

		Convey("When recording persistence metrics", func() {
			before := testutil.ToFloat64(globalManager.opsCommitted.WithLabelValues("create"))
			RecordChunkCommitted(map[string]int{"create": 3, "set": 2})

			Convey("Then ops should be counted by kind", func() {
				So(testutil.ToFloat64(globalManager.opsCommitted.WithLabelValues("create")), ShouldEqual, before+3)
			})
		})

		Convey("When recording the remaining counters", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					UpdateRankedEntities(100)
					RecordIntegrityAbort()
					RecordFetchLatency(120)
					RecordFetchPage()
					RecordSourceRateLimited()
					RecordChunkFailed()
					RecordHistoryLookup("7", "hit")
					RecordStaleAggregates(2)
					RecordSnapshotsArchived(10)
					RecordEventDetected("milestone")
					RecordPostPublished(42)
					RecordPostFailed()
					RecordPostDeleted()
					RecordCleanupScanned(5)
					RecordRateLimitHit()
					RecordRetryScheduled()
					RecordRetryDeduplicated()
					RecordHTTPRequest("leaderboard", "GET", "200")
					RecordHTTPRequestDuration("leaderboard", "GET", "200", 5)
					RecordErrorByComponent("batch", "commit")
					RecordErrorByType("server_error", "high")
					RecordErrorByEndpoint("jobs", "POST", "server_error")
					RecordErrorLatency("http", "server_error", 12)
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When reading the registry", func() {
			Convey("Then it should be the custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
