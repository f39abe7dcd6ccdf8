// Package nativecodec bridges an externally supplied nested value --
// typically parsed from JSON or YAML into Go's generic interface{} shape --
// into the flat Model representation, and back.
//
// Flatten walks depth-first, allocating fresh Ids starting at 0 and
// incrementing; parent records are appended after their children, so the
// root (Id 0) is always last in the returned slice, matching AppFormat's
// ordering guarantee (§4.4, P5).
//
// Inflate is the inverse: given a model.Model, it recursively replaces
// List/Dict entries with fully inlined nested values, starting from the
// root.
package nativecodec

import (
	"fmt"
	"sort"

	"github.com/cascadelabs/hudsync/pkg/model"
)

// Flatten converts a nested value built from bool, int, float64, string,
// []interface{}, and map[string]interface{} into a flat batch of records
// in post-order (children before parent), ending with the root at Id 0.
func Flatten(v interface{}) ([]model.Record, error) {
	f := &flattener{nextID: 0}
	if _, err := f.load(v); err != nil {
		return nil, err
	}
	return f.records, nil
}

type flattener struct {
	nextID  model.Id
	records []model.Record
}

func (f *flattener) alloc() model.Id {
	id := f.nextID
	f.nextID++
	return id
}

func (f *flattener) load(v interface{}) (model.Id, error) {
	switch item := v.(type) {
	case []interface{}:
		return f.loadList(item)
	case map[string]interface{}:
		return f.loadDict(item)
	default:
		id := f.alloc()
		val, err := scalarValue(item)
		if err != nil {
			return 0, err
		}
		f.records = append(f.records, model.Record{Id: id, Value: val})
		return id, nil
	}
}

func (f *flattener) loadList(items []interface{}) (model.Id, error) {
	id := f.alloc()
	ids := make([]model.Id, len(items))
	for i, item := range items {
		childID, err := f.load(item)
		if err != nil {
			return 0, err
		}
		ids[i] = childID
	}
	f.records = append(f.records, model.Record{Id: id, Value: model.List(ids)})
	return id, nil
}

func (f *flattener) loadDict(m map[string]interface{}) (model.Id, error) {
	id := f.alloc()

	// iterate keys in sorted order so Flatten is deterministic; the
	// protocol does not define dict iteration order (§3.1), but
	// deterministic Id assignment makes tests and logs reproducible.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	children := make(map[string]model.Id, len(m))
	for _, k := range keys {
		childID, err := f.load(m[k])
		if err != nil {
			return 0, err
		}
		children[k] = childID
	}
	f.records = append(f.records, model.Record{Id: id, Value: model.Dict(children)})
	return id, nil
}

// scalarValue has no float32 case: JSON and YAML decoding (this bridge's
// only real producers) always yield float64, and scalarFromValue promotes
// model.KindF32 back to float64 on Inflate, so accepting a raw float32
// here would make Inflate(Flatten(v)) return a different dynamic type
// than v went in with.
func scalarValue(v interface{}) (model.Value, error) {
	switch n := v.(type) {
	case bool:
		return model.Bool(n), nil
	case string:
		return model.Str(n), nil
	case float64:
		return model.F64(n), nil
	case int:
		return intToValue(int64(n)), nil
	case int32:
		return intToValue(int64(n)), nil
	case int64:
		return intToValue(n), nil
	case nil:
		return model.Str(""), nil
	default:
		return model.Value{}, fmt.Errorf("nativecodec: unsupported scalar type %T", v)
	}
}

func intToValue(n int64) model.Value {
	switch {
	case n < -128:
		return model.I32(int32(n))
	case n < 0:
		return model.I8(int8(n))
	case n <= 127:
		return model.U8(uint8(n))
	default:
		return model.U32(uint32(n))
	}
}

// Inflate reconstructs the nested interface{} view of id within m, recursing
// into List and Dict children. It is the dump_model operation of §4.4.
func Inflate(m *model.Model, id model.Id) (interface{}, error) {
	item, err := m.GetItem(id)
	if err != nil {
		return nil, err
	}

	switch item.Kind() {
	case model.KindList:
		ids, _ := item.AsList()
		out := make([]interface{}, len(ids))
		for i, childID := range ids {
			v, err := Inflate(m, childID)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.KindDict:
		children, _ := item.AsDict()
		out := make(map[string]interface{}, len(children))
		for name, childID := range children {
			v, err := Inflate(m, childID)
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil
	default:
		return scalarFromValue(item), nil
	}
}

func scalarFromValue(v model.Value) interface{} {
	switch v.Kind() {
	case model.KindBool:
		b, _ := v.AsBool()
		return b
	case model.KindStr:
		s, _ := v.AsStr()
		return s
	case model.KindF32:
		f, _ := v.AsF32()
		return float64(f)
	case model.KindF64:
		f, _ := v.AsF64()
		return f
	default:
		n, _ := v.AsInt()
		return n
	}
}
