package replay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/churn/internal/adapters/http/api"
	service "github.com/okian/churn/internal/app"
	"github.com/okian/churn/internal/domain/pipeline"
	"github.com/okian/churn/internal/modelconfig"
	"github.com/okian/churn/internal/replay"
	"github.com/okian/churn/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const modelDir = "../../model"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// newChurnServer serves the shipped model package.
func newChurnServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg, err := modelconfig.LoadDir(modelDir)
	if err != nil {
		t.Fatalf("model config: %v", err)
	}
	artifact, err := pipeline.Load(cfg.PipelinePath(modelDir))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	svc, err := service.New(
		service.WithPipeline(artifact),
		service.WithModelConfig(cfg),
		service.WithModelVersion("0.0.1"),
	)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return httptest.NewServer(api.NewServer(svc).Router(context.Background()))
}

func baseConfig(url string) *replay.Config {
	return &replay.Config{
		BaseURL:   url,
		APIPrefix: "/api/v1",
		ModelDir:  modelDir,
		BatchSize: 2,
		Workers:   2,
		Timeout:   5 * time.Second,
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running prediction service", t, func() {
		srv := newChurnServer(t)
		defer srv.Close()
		ctx := context.Background()

		Convey("When replaying the shipped dataset", func() {
			config := baseConfig(srv.URL)
			config.OutputFile = filepath.Join(t.TempDir(), "out", "results.json")

			stats, err := replay.Run(ctx, config)

			Convey("Then every batch succeeds", func() {
				So(err, ShouldBeNil)
				So(stats.Rows, ShouldEqual, 5)
				So(stats.BatchesSubmitted, ShouldEqual, 3)
				So(stats.BatchesSuccessful, ShouldEqual, 3)
				So(stats.BatchesFailed, ShouldEqual, 0)
				So(stats.Labeled, ShouldEqual, 5)
				So(stats.Accuracy(), ShouldBeBetweenOrEqual, 0, 1)
			})

			Convey("And per-row results are written in order", func() {
				data, err := os.ReadFile(config.OutputFile)
				So(err, ShouldBeNil)
				var rows []replay.RowResult
				So(json.Unmarshal(data, &rows), ShouldBeNil)
				So(rows, ShouldHaveLength, 5)
				So(rows[0].ID, ShouldEqual, "24011ae4ebbe3035111d65fa7c15bc57")
				So(rows[0].Label, ShouldNotBeNil)
			})
		})

		Convey("When a limit is set", func() {
			config := baseConfig(srv.URL)
			config.Limit = 3
			config.BatchSize = 10

			stats, err := replay.Run(ctx, config)

			Convey("Then only that many rows are sent in one batch", func() {
				So(err, ShouldBeNil)
				So(stats.Rows, ShouldEqual, 3)
				So(stats.BatchesSubmitted, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service whose predict endpoint fails", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"name":"x","api_version":"0.0.1","model_version":"0.0.1"}`))
		})
		mux.HandleFunc("/api/v1/predict", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"internal_error","message":"Prediction failed"}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When replaying", func() {
			stats, err := replay.Run(context.Background(), baseConfig(srv.URL))

			Convey("Then every batch is counted as failed", func() {
				So(err, ShouldBeNil)
				So(stats.BatchesFailed, ShouldEqual, 3)
				So(stats.Labeled, ShouldEqual, 0)
			})
		})
	})

	Convey("Given no service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		Convey("When replaying", func() {
			_, err := replay.Run(context.Background(), baseConfig(url))

			Convey("Then the health check fails", func() {
				So(errors.Is(err, replay.ErrUnhealthy), ShouldBeTrue)
			})
		})
	})
}
