package validation_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/churn/internal/domain/schema"
	"github.com/okian/churn/internal/domain/table"
	"github.com/okian/churn/internal/domain/validation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCheck(t *testing.T) {
	Convey("Given the configured features cons_12m, pow_max and has_gas", t, func() {
		features := []string{"cons_12m", "pow_max", "has_gas"}

		Convey("When a well-formed row is checked", func() {
			batch := table.New(schema.FieldNames(), []table.Record{
				{"cons_12m": json.Number("500"), "pow_max": "15.5", "has_gas": "t"},
			})
			cleaned, errs, err := validation.Check(features, batch)

			Convey("Then it is accepted with exactly the configured columns", func() {
				So(err, ShouldBeNil)
				So(errs, ShouldBeNil)
				So(cleaned.Columns, ShouldResemble, features)
				So(cleaned.Len(), ShouldEqual, 1)
			})

			Convey("And the values are not coerced", func() {
				So(cleaned.Records[0]["pow_max"], ShouldEqual, "15.5")
			})
		})

		Convey("When an integer field carries text", func() {
			batch := table.New(schema.FieldNames(), []table.Record{
				{"cons_12m": "not-a-number"},
			})
			_, errs, err := validation.Check([]string{"cons_12m"}, batch)

			Convey("Then one error locates row 0 and the field", func() {
				So(err, ShouldBeNil)
				So(len(errs), ShouldEqual, 1)
				So(errs[0].Loc, ShouldResemble, []any{"inputs", 0, "cons_12m"})
				So(errs[0].Type, ShouldEqual, "type_error.integer")
				So(errs[0].Msg, ShouldEqual, "value is not a valid integer")
			})
		})

		Convey("When several rows fail", func() {
			batch := table.New(schema.FieldNames(), []table.Record{
				{"cons_12m": 10, "pow_max": "x"},
				{"cons_12m": 11},
				{"cons_12m": "y", "pow_max": "z", "has_gas": "f"},
			})
			cleaned, errs, err := validation.Check(features, batch)

			Convey("Then every offending row and field is reported", func() {
				So(err, ShouldBeNil)
				So(len(errs), ShouldEqual, 3)
				So(errs[0].Loc, ShouldResemble, []any{"inputs", 0, "pow_max"})
				So(errs[1].Loc, ShouldResemble, []any{"inputs", 2, "cons_12m"})
				So(errs[2].Loc, ShouldResemble, []any{"inputs", 2, "pow_max"})
				So(errs.Fields(), ShouldResemble, []string{"pow_max", "cons_12m"})
			})

			Convey("And no row is dropped", func() {
				So(cleaned.Len(), ShouldEqual, batch.Len())
			})
		})

		Convey("When values are NaN markers", func() {
			batch := table.New(schema.FieldNames(), []table.Record{
				{"cons_12m": math.NaN(), "pow_max": math.NaN(), "has_gas": math.NaN()},
			})
			cleaned, errs, err := validation.Check(features, batch)

			Convey("Then they count as absent rather than mistyped", func() {
				So(err, ShouldBeNil)
				So(errs, ShouldBeNil)
				So(cleaned.Records[0]["has_gas"], ShouldBeNil)
			})
		})

		Convey("When fields outside the feature list are wrong", func() {
			batch := table.New(schema.FieldNames(), []table.Record{
				{"cons_12m": 1, "net_margin": "bad"},
			})
			_, errs, err := validation.Check(features, batch)

			Convey("Then they are not validated", func() {
				So(err, ShouldBeNil)
				So(errs, ShouldBeNil)
			})
		})

		Convey("When the batch is empty", func() {
			cleaned, errs, err := validation.Check(features, table.Table{})

			Convey("Then it is vacuously valid", func() {
				So(err, ShouldBeNil)
				So(errs, ShouldBeNil)
				So(cleaned.Len(), ShouldEqual, 0)
				So(cleaned.Columns, ShouldResemble, features)
			})
		})

		Convey("When a configured column is absent from the batch", func() {
			batch := table.New([]string{"cons_12m"}, []table.Record{{"cons_12m": 1}})
			_, _, err := validation.Check(features, batch)

			Convey("Then a missing feature columns error is returned", func() {
				So(errors.Is(err, table.ErrMissingFeatureColumns), ShouldBeTrue)
			})
		})
	})
}
