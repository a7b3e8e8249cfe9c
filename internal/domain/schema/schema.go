// Package schema declares the customer/contract row accepted by the churn model.
//
// The Row struct is the schema: every field is an optional pointer, its json
// tag is the wire name and its element type decides how raw values are coerced.
package schema

import (
	"reflect"
	"strings"
)

// Kind is the scalar type of a schema field.
type Kind int

// Field kinds.
const (
	KindString Kind = iota + 1
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Row is one customer/contract record. Absent values stay nil.
type Row struct {
	HasGas                    *string  `json:"has_gas"`
	OriginUp                  *string  `json:"origin_up"`
	PriceChangeEnergy         *string  `json:"price_change_energy"`
	Cons12m                   *int64   `json:"cons_12m"`
	ForecastCons12m           *float64 `json:"forecast_cons_12m"`
	ForecastDiscountEnergy    *float64 `json:"forecast_discount_energy"`
	ForecastMeterRent12m      *float64 `json:"forecast_meter_rent_12m"`
	ImpCons                   *float64 `json:"imp_cons"`
	MarginGrossPowEle         *float64 `json:"margin_gross_pow_ele"`
	NbProdAct                 *int64   `json:"nb_prod_act"`
	NetMargin                 *float64 `json:"net_margin"`
	PowMax                    *float64 `json:"pow_max"`
	PriceOffPeakVar           *float64 `json:"price_off_peak_var"`
	PriceOffPeakFix           *float64 `json:"price_off_peak_fix"`
	PreviousPrice             *float64 `json:"previous_price"`
	PriceSens                 *float64 `json:"price_sens"`
	EndYear                   *int64   `json:"end_year"`
	ModifProdMonth            *int64   `json:"modif_prod_month"`
	RenewalYear               *int64   `json:"renewal_year"`
	RenewalMonth              *int64   `json:"renewal_month"`
	DiffActEnd                *int64   `json:"diff_act_end"`
	DiffActModif              *int64   `json:"diff_act_modif"`
	DiffEndModif              *int64   `json:"diff_end_modif"`
	RatioLastMonthLast12mCons *float64 `json:"ratio_last_month_last12m_cons"`
}

// Field describes one named, typed column of the row schema.
type Field struct {
	Name string
	Kind Kind

	index int
}

var (
	fields  []Field          //nolint:gochecknoglobals // derived once from Row
	byName  map[string]Field //nolint:gochecknoglobals // derived once from Row
	rowType = reflect.TypeOf(Row{})
)

func init() { //nolint:gochecknoinits // schema table is derived from the Row struct tags
	byName = make(map[string]Field, rowType.NumField())
	for i := 0; i < rowType.NumField(); i++ {
		sf := rowType.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		f := Field{Name: name, Kind: kindOf(sf.Type.Elem().Kind()), index: i}
		fields = append(fields, f)
		byName[name] = f
	}
}

func kindOf(k reflect.Kind) Kind {
	switch k {
	case reflect.String:
		return KindString
	case reflect.Int64:
		return KindInt
	case reflect.Float64:
		return KindFloat
	default:
		panic("schema: unsupported row field kind " + k.String())
	}
}

// Fields returns the schema fields in declaration order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldNames returns the schema field names in declaration order.
func FieldNames() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the field with the given wire name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// FieldError is a single field-level failure produced by Decode.
type FieldError struct {
	Field string
	Msg   string
	Type  string
}

// Messages and kinds reported for coercion failures.
const (
	MsgNotString = "str type expected"
	MsgNotInt    = "value is not a valid integer"
	MsgNotFloat  = "value is not a valid float"

	TypeNotString = "type_error.str"
	TypeNotInt    = "type_error.integer"
	TypeNotFloat  = "type_error.float"
)

// Decode builds a Row from a raw record. Keys that are not schema fields are
// ignored and nil values leave the field absent. Every failing field is
// reported, in schema order.
func Decode(record map[string]any) (Row, []FieldError) {
	var (
		row  Row
		errs []FieldError
	)
	rv := reflect.ValueOf(&row).Elem()
	for _, f := range fields {
		v, ok := record[f.Name]
		if !ok || v == nil {
			continue
		}
		target := rv.Field(f.index)
		switch f.Kind {
		case KindString:
			s, ok := CoerceString(v)
			if !ok {
				errs = append(errs, FieldError{Field: f.Name, Msg: MsgNotString, Type: TypeNotString})
				continue
			}
			target.Set(reflect.ValueOf(&s))
		case KindInt:
			n, ok := CoerceInt(v)
			if !ok {
				errs = append(errs, FieldError{Field: f.Name, Msg: MsgNotInt, Type: TypeNotInt})
				continue
			}
			target.Set(reflect.ValueOf(&n))
		case KindFloat:
			x, ok := CoerceFloat(v)
			if !ok {
				errs = append(errs, FieldError{Field: f.Name, Msg: MsgNotFloat, Type: TypeNotFloat})
				continue
			}
			target.Set(reflect.ValueOf(&x))
		}
	}
	return row, errs
}
