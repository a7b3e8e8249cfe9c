package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/churn/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"CHURN_CONFIG",
	"CHURN_ENV_FILE",
	"CHURN_LOG_LEVEL",
	"CHURN_LOG_FORMAT",
	"CHURN_ADDR",
	"CHURN_API_PREFIX",
	"CHURN_PROJECT_NAME",
	"CHURN_MODEL_DIR",
	"CHURN_MODEL_CONFIG_FILE",
	"CHURN_CORS_ORIGINS",
	"CHURN_MAX_BODY_BYTES",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8001")
			convey.So(cfg.APIPrefix, convey.ShouldEqual, "/api/v1")
			convey.So(cfg.ProjectName, convey.ShouldEqual, "Predicting customer churn API")
			convey.So(cfg.ModelDir, convey.ShouldEqual, "model")
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 1<<20)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8001")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, config.DefaultCORSOrigins())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CHURN_ADDR", ":9000")
			_ = os.Setenv("CHURN_MODEL_DIR", "/srv/model")
			_ = os.Setenv("CHURN_MAX_BODY_BYTES", "2048")
			_ = os.Setenv("CHURN_CORS_ORIGINS", "https://a.example, https://b.example,")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.ModelDir, convey.ShouldEqual, "/srv/model")
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 2048)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeTempFile(t, "churn.yml", `
addr: ":9090"
log_level: debug
project_name: "Churn"
cors_origins:
  - https://ui.example
`)
			_ = os.Setenv("CHURN_CONFIG", path)
			_ = os.Setenv("CHURN_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.ProjectName, convey.ShouldEqual, "Churn")
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://ui.example"})
			})
		})

		convey.Convey("When a .env file is named", func() {
			path := writeTempFile(t, "churn.env", "CHURN_LOG_FORMAT=json\nCHURN_ADDR=:7000\n")
			_ = os.Setenv("CHURN_ENV_FILE", path)
			_ = os.Setenv("CHURN_ADDR", ":6000")

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values fill in without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.Addr, convey.ShouldEqual, ":6000")
			})
		})

		convey.Convey("When the named .env file does not exist", func() {
			_ = os.Setenv("CHURN_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CHURN_CONFIG", "/nonexistent/churn.yml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := writeTempFile(t, "bad.yml", "addr: [unclosed\n")
			_ = os.Setenv("CHURN_CONFIG", path)

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CHURN_MAX_BODY_BYTES", "lots")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"empty model dir":   func(c *config.Config) { c.ModelDir = "" },
			"relative prefix":   func(c *config.Config) { c.APIPrefix = "api" },
			"zero body limit":   func(c *config.Config) { c.MaxBodyBytes = 0 },
			"unknown log style": func(c *config.Config) { c.LogFormat = "xml" },
		}
		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				cfg := config.New()
				mutate(cfg)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
