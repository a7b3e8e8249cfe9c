package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the logger package", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then a global logger is available", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithOutput(&buf)), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When logging with a request id in context", func() {
			ctx := ContextWithRequestID(context.Background(), "req-1")
			Get().With(String("component", "test")).Info(ctx, "hello", Int("rows", 3), Error(errors.New("boom")))

			var rec map[string]any
			So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)

			Convey("Then fields, source and request id are recorded", func() {
				So(rec["msg"], ShouldEqual, "hello")
				So(rec["component"], ShouldEqual, "test")
				So(rec["rows"], ShouldEqual, 3.0)
				So(rec["request_id"], ShouldEqual, "req-1")
				So(rec["error"], ShouldEqual, "boom")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a record", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "dropped")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		err := SetLevelString("verbose")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "verbose"), ShouldBeTrue)
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given contexts with and without a request id", t, func() {
		So(RequestID(context.Background()), ShouldEqual, "")
		So(RequestID(ContextWithRequestID(context.Background(), "abc")), ShouldEqual, "abc")
	})
}
