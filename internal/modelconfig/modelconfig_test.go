package modelconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/churn/internal/modelconfig"
	. "github.com/smartystreets/goconvey/convey"
)

const validYAML = `
package_name: churn_model
pipeline_save_file: churn_pipeline_v0.0.1.json
client_data_file: client_data.csv
price_data_file: price_data.csv
target: churn
features:
  - cons_12m
  - pow_max
  - has_gas
random_state: 42
numerical_vars: [cons_12m, pow_max]
categorical_vars: [has_gas]
test_size: 0.2
unused_key: ignored
`

func TestParse(t *testing.T) {
	Convey("Given a model package config document", t, func() {
		Convey("When every required key is present", func() {
			cfg, err := modelconfig.Parse([]byte(validYAML))

			Convey("Then both sections are populated", func() {
				So(err, ShouldBeNil)
				So(cfg.App.PackageName, ShouldEqual, "churn_model")
				So(cfg.App.PipelineSaveFile, ShouldEqual, "churn_pipeline_v0.0.1.json")
				So(cfg.Model.Target, ShouldEqual, "churn")
				So(cfg.Model.Features, ShouldResemble, []string{"cons_12m", "pow_max", "has_gas"})
				So(cfg.Model.RandomState, ShouldEqual, 42)
				So(cfg.Model.TestSize, ShouldEqual, 0.2)
				So(cfg.Model.CategoricalVars, ShouldResemble, []string{"has_gas"})
			})

			Convey("And file locations resolve inside the package directory", func() {
				So(cfg.PipelinePath("/pkg"), ShouldEqual, filepath.Join("/pkg", "trained_models", "churn_pipeline_v0.0.1.json"))
				client, price := cfg.DatasetPaths("/pkg")
				So(client, ShouldEqual, filepath.Join("/pkg", "datasets", "client_data.csv"))
				So(price, ShouldEqual, filepath.Join("/pkg", "datasets", "price_data.csv"))
			})
		})

		Convey("When required keys are missing", func() {
			_, err := modelconfig.Parse([]byte("package_name: x\ntarget: churn\n"))

			Convey("Then the error is invalid config naming them", func() {
				So(errors.Is(err, modelconfig.ErrConfigInvalid), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "pipeline_save_file")
				So(err.Error(), ShouldContainSubstring, "test_size")
			})
		})

		Convey("When a value is mistyped", func() {
			_, err := modelconfig.Parse([]byte(strings.Replace(validYAML, "random_state: 42", "random_state: forty-two", 1)))

			Convey("Then the error is invalid config", func() {
				So(errors.Is(err, modelconfig.ErrConfigInvalid), ShouldBeTrue)
			})
		})

		Convey("When a feature is not a row field", func() {
			doc := `
package_name: p
pipeline_save_file: f.json
client_data_file: c.csv
price_data_file: p.csv
target: churn
features: [cons_12m, customer_age]
random_state: 1
numerical_vars: []
categorical_vars: []
test_size: 0.3
`
			_, err := modelconfig.Parse([]byte(doc))

			Convey("Then the unknown feature is reported", func() {
				So(errors.Is(err, modelconfig.ErrConfigInvalid), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "customer_age")
			})
		})

		Convey("When test_size is out of range", func() {
			doc := strings.Replace(validYAML, "test_size: 0.2", "test_size: 1.5", 1)
			_, err := modelconfig.Parse([]byte(doc))

			Convey("Then the document is rejected", func() {
				So(errors.Is(err, modelconfig.ErrConfigInvalid), ShouldBeTrue)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a model package directory", t, func() {
		dir := t.TempDir()

		Convey("When config.yml is absent", func() {
			_, err := modelconfig.LoadDir(dir)

			Convey("Then the error is config not found", func() {
				So(errors.Is(err, modelconfig.ErrConfigNotFound), ShouldBeTrue)
			})
		})

		Convey("When config.yml and VERSION exist", func() {
			So(os.WriteFile(filepath.Join(dir, modelconfig.FileName), []byte(validYAML), 0o600), ShouldBeNil)
			So(os.WriteFile(filepath.Join(dir, modelconfig.VersionFileName), []byte("1.2.3\n"), 0o600), ShouldBeNil)

			cfg, err := modelconfig.LoadDir(dir)
			version, verr := modelconfig.ReadVersion(dir)

			Convey("Then both load", func() {
				So(err, ShouldBeNil)
				So(cfg.App.PackageName, ShouldEqual, "churn_model")
				So(verr, ShouldBeNil)
				So(version, ShouldEqual, "1.2.3")
			})
		})

		Convey("When VERSION is blank", func() {
			So(os.WriteFile(filepath.Join(dir, modelconfig.VersionFileName), []byte("  \n"), 0o600), ShouldBeNil)
			_, err := modelconfig.ReadVersion(dir)

			Convey("Then it is an error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given the model package shipped with the service", t, func() {
		dir := filepath.Join("..", "..", "model")
		cfg, err := modelconfig.LoadDir(dir)

		Convey("Then it is valid and names an existing artifact", func() {
			So(err, ShouldBeNil)
			So(len(cfg.Model.Features), ShouldEqual, 24)
			_, statErr := os.Stat(cfg.PipelinePath(dir))
			So(statErr, ShouldBeNil)
		})
	})
}
