package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/retry"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// memoryTasks dedupes by ID like the real scheduler.
type memoryTasks struct {
	tasks map[string]model.RetryTask
	err   error
}

func (m *memoryTasks) Schedule(_ context.Context, task model.RetryTask) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.tasks == nil {
		m.tasks = make(map[string]model.RetryTask)
	}
	if _, ok := m.tasks[task.ID]; ok {
		return false, nil
	}
	m.tasks[task.ID] = task
	return true, nil
}

func TestSchedulerHandle(t *testing.T) {
	ctx := context.Background()
	reset := time.Date(2024, 6, 1, 12, 15, 0, 0, time.UTC)

	Convey("Given a scheduler", t, func() {
		tasks := &memoryTasks{}
		s := retry.NewScheduler(tasks)

		Convey("When the quota is exhausted", func() {
			err := fmt.Errorf("publish: %w", &social.RateLimitError{Limit: 50, Remaining: 0, Reset: reset})
			ok, herr := s.Handle(ctx, retry.JobPublish, "hello", err)

			Convey("Then one task is scheduled at the reset time", func() {
				So(herr, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(len(tasks.tasks), ShouldEqual, 1)
				for _, task := range tasks.tasks {
					So(task.ScheduledTime.Equal(reset), ShouldBeTrue)
					So(task.TargetEndpoint, ShouldEqual, retry.DefaultEndpoint)
					So(task.Payload, ShouldResemble, model.RetryPayload{Job: retry.JobPublish, Content: "hello"})
				}
			})

			Convey("And the limit is hit again before the reset", func() {
				ok, herr := s.Handle(ctx, retry.JobPublish, "hello", err)

				Convey("Then no second task is created", func() {
					So(herr, ShouldBeNil)
					So(ok, ShouldBeFalse)
					So(len(tasks.tasks), ShouldEqual, 1)
				})
			})
		})

		Convey("When quota remains", func() {
			ok, err := s.Handle(ctx, retry.JobCleanup, "", &social.RateLimitError{Limit: 50, Remaining: 3, Reset: reset})

			Convey("Then nothing is scheduled", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(tasks.tasks, ShouldBeEmpty)
			})
		})

		Convey("When the limit header is missing", func() {
			ok, _ := s.Handle(ctx, retry.JobCleanup, "", &social.RateLimitError{Reset: reset})
			So(ok, ShouldBeFalse)
			So(tasks.tasks, ShouldBeEmpty)
		})

		Convey("When the error is not a rate limit", func() {
			ok, err := s.Handle(ctx, retry.JobPublish, "x", errors.New("boom"))
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("When the task scheduler fails", func() {
			tasks.err = errors.New("unavailable")
			_, err := s.Handle(ctx, retry.JobPublish, "x", &social.RateLimitError{Limit: 1, Reset: reset})
			So(errors.Is(err, retry.ErrSchedule), ShouldBeTrue)
		})
	})
}

func TestTaskID(t *testing.T) {
	Convey("Given task identity inputs", t, func() {
		reset := time.Unix(1_717_243_200, 0)
		id := retry.TaskID("/tasks/retry", retry.JobPublish, reset)

		So(id, ShouldEqual, retry.TaskID("/tasks/retry", retry.JobPublish, reset.In(time.FixedZone("x", 3600))))
		So(id, ShouldNotEqual, retry.TaskID("/tasks/retry", retry.JobCleanup, reset))
		So(id, ShouldNotEqual, retry.TaskID("/tasks/retry", retry.JobPublish, reset.Add(time.Second)))
		So(len(id), ShouldEqual, 36)
	})
}
