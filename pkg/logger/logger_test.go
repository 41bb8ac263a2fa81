package logger_test

import (
	"context"
	"testing"

	"github.com/okian/crema/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging at every level", func() {
			l := logger.Get()

			So(func() {
				l.Debug(ctx, "debug line", logger.String("k", "v"))
				l.Info(ctx, "info line", logger.Int("n", 1))
				l.Warn(ctx, "warn line", logger.Bool("flag", true))
				l.Error(ctx, "error line", logger.Float64("f", 2.5))
			}, ShouldNotPanic)
		})

		Convey("When creating a named sub-logger", func() {
			l := logger.Named("engine")
			So(l, ShouldNotBeNil)
			So(func() { l.Info(ctx, "named line") }, ShouldNotPanic)
		})

		Convey("When setting levels from strings", func() {
			So(logger.SetLevelString("debug"), ShouldBeNil)
			So(logger.SetLevelString("WARN"), ShouldBeNil)
			So(logger.SetLevelString(""), ShouldBeNil)
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
