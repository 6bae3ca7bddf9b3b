package records

// codec.go maps positional and columnar contract outputs onto typed records
// using reflection, the same way rows are scanned into tagged structs.

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
)

// Codec decodes contract outputs into records of type T according to a
// Schema. A Codec is immutable and safe for concurrent use.
type Codec[T any] struct {
	schema Schema
	fields []int // struct field index per column
}

// NewCodec binds schema to the struct type T. Every column must match the
// json tag of an exported string or unsigned integer field.
func NewCodec[T any](schema Schema) (*Codec[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("records: %s is not a struct", t)
	}
	index := buildFieldIndex(t)
	c := &Codec[T]{schema: schema, fields: make([]int, len(schema.Columns))}
	for i, col := range schema.Columns {
		idx, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("records: %s has no field tagged %q", t, col)
		}
		switch t.Field(idx).Type.Kind() {
		case reflect.String, reflect.Uint64:
		default:
			return nil, fmt.Errorf("records: field %s.%s has unsupported kind %s", t, t.Field(idx).Name, t.Field(idx).Type.Kind())
		}
		c.fields[i] = idx
	}
	return c, nil
}

// MustCodec is NewCodec for package-level tables.
func MustCodec[T any](schema Schema) *Codec[T] {
	c, err := NewCodec[T](schema)
	if err != nil {
		panic(err)
	}
	return c
}

// Schema returns the schema the codec decodes.
func (c *Codec[T]) Schema() Schema {
	return c.schema
}

// DecodeOne decodes the single-record shape: one value per column in order.
// A lone tuple output is flattened into its components first.
func (c *Codec[T]) DecodeOne(out []any) (T, error) {
	var rec T
	values := flattenTuple(out)
	if len(values) != len(c.fields) {
		return rec, c.malformed("expected %d values, got %d", len(c.fields), len(values))
	}
	dst := reflect.ValueOf(&rec).Elem()
	for i, v := range values {
		if err := c.set(dst, i, v); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// DecodeAll decodes the collection shape: one equally long array per column,
// zipped by index. Any violation fails the whole decode with no partial
// output.
func (c *Codec[T]) DecodeAll(out []any) ([]T, error) {
	columns := flattenTuple(out)
	if len(columns) != len(c.fields) {
		return nil, c.malformed("expected %d columns, got %d", len(c.fields), len(columns))
	}

	cols := make([]reflect.Value, len(columns))
	n := -1
	for i, col := range columns {
		v := reflect.ValueOf(col)
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return nil, c.malformed("column %s is %T, not an array", c.schema.Columns[i], col)
		}
		if n >= 0 && v.Len() != n {
			return nil, c.malformed("column %s has %d entries, expected %d", c.schema.Columns[i], v.Len(), n)
		}
		n = v.Len()
		cols[i] = v
	}

	recs := make([]T, n)
	for row := 0; row < n; row++ {
		dst := reflect.ValueOf(&recs[row]).Elem()
		for i, col := range cols {
			if err := c.set(dst, i, col.Index(row).Interface()); err != nil {
				return nil, err
			}
		}
	}
	return recs, nil
}

func (c *Codec[T]) set(dst reflect.Value, col int, raw any) error {
	field := dst.Field(c.fields[col])
	switch field.Kind() {
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return c.malformed("column %s: expected string, got %T", c.schema.Columns[col], raw)
		}
		field.SetString(s)
	case reflect.Uint64:
		n, err := toUint64(raw)
		if err != nil {
			return c.malformed("column %s: %v", c.schema.Columns[col], err)
		}
		field.SetUint(n)
	}
	return nil
}

func (c *Codec[T]) malformed(format string, args ...any) error {
	return apperrors.NewMalformedResultError(c.schema.Entity, fmt.Sprintf(format, args...))
}

// ToUint64 converts an unsigned contract integer to uint64.
func ToUint64(raw any) (uint64, error) {
	return toUint64(raw)
}

func toUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case *big.Int:
		if v == nil {
			return 0, fmt.Errorf("nil integer")
		}
		if v.Sign() < 0 || !v.IsUint64() {
			return 0, fmt.Errorf("integer %s out of range", v.String())
		}
		return v.Uint64(), nil
	case big.Int:
		return toUint64(&v)
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, fmt.Errorf("integer %d out of range", rv.Int())
		}
		return uint64(rv.Int()), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", raw)
}

// flattenTuple expands a single struct output (an ABI tuple) into its
// fields. Any other shape is returned unchanged.
func flattenTuple(out []any) []any {
	if len(out) != 1 || out[0] == nil {
		return out
	}
	switch out[0].(type) {
	case *big.Int, big.Int:
		return out
	}
	v := reflect.ValueOf(out[0])
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Struct {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return out
	}
	fields := make([]any, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		if v.Type().Field(i).IsExported() {
			fields = append(fields, v.Field(i).Interface())
		}
	}
	return fields
}

// buildFieldIndex maps json tag names to exported field indices.
func buildFieldIndex(t reflect.Type) map[string]int {
	m := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		m[name] = i
	}
	return m
}
