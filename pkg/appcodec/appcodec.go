// Package appcodec implements AppFormat: the decode-only, recursive,
// self-describing tree serialization used for bulk snapshots from a
// producer distinct from the one driving TCPFormat deltas.
//
// Grammar (§4.3):
//
//	type    := kind:u8  id:u32  body(kind)
//	kind=0  -> native
//	kind=1  -> list:    count:u32,  count x (index:u32, type)
//	kind=2  -> dict:    count:u32,  count x (name:length-prefixed-string, type)
//	native  := ntyp:u8  nbody(ntyp)
//	ntyp=2  -> i64
//	ntyp=4  -> f64
//	ntyp=5  -> u8 bool (0/1)
//	ntyp=6  -> length-prefixed string
//
// Because children are parsed before their parent record is appended, the
// flat output always has every parent after all of its descendants -- the
// root record is last.
package appcodec

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cascadelabs/hudsync/internal/applog"
	"github.com/cascadelabs/hudsync/pkg/model"
	"github.com/cascadelabs/hudsync/pkg/wire"
)

var log = applog.Named("appcodec")

// errUnknownNativeType is the sentinel wrapped into decodeNative's error so
// that decodeList/decodeDict can tell "this child's value kind is not one we
// know" apart from a genuine framing error (short read, bad list index),
// which must still abort the whole decode since the reader position can no
// longer be trusted.
var errUnknownNativeType = errors.New("appcodec: unknown native type")

const (
	kindNative = 0
	kindList   = 1
	kindDict   = 2
)

const (
	nativeI64  = 2
	nativeF64  = 4
	nativeBool = 5
	nativeStr  = 6
)

// Decode parses a single AppFormat tree from buf and returns its flat
// [(id, value)] representation, root last.
func Decode(buf []byte) ([]model.Record, error) {
	r := bytes.NewReader(buf)
	_, records, err := decodeType(r)
	return records, err
}

func decodeType(r *bytes.Reader) (model.Id, []model.Record, error) {
	kind, err := wire.ReadU8(r)
	if err != nil {
		return 0, nil, err
	}
	rawID, err := wire.ReadU32(r)
	if err != nil {
		return 0, nil, err
	}
	id := model.Id(rawID)

	var value model.Value
	var children []model.Record

	switch kind {
	case kindNative:
		value, err = decodeNative(r)
		if err != nil {
			// id is still returned on error: a skipped native value is a
			// dangling reference at the Model level (§7), not a framing
			// failure, so the caller needs the id to record the reference.
			return id, nil, fmt.Errorf("appcodec: id %d: %w", id, err)
		}
	case kindList:
		value, children, err = decodeList(r)
		if err != nil {
			return 0, nil, err
		}
	case kindDict:
		value, children, err = decodeDict(r)
		if err != nil {
			return 0, nil, err
		}
	default:
		return 0, nil, fmt.Errorf("appcodec: id %d: unknown type kind %d", id, kind)
	}

	children = append(children, model.Record{Id: id, Value: value})
	return id, children, nil
}

func decodeNative(r *bytes.Reader) (model.Value, error) {
	ntyp, err := wire.ReadU8(r)
	if err != nil {
		return model.Value{}, err
	}
	switch ntyp {
	case nativeI64:
		v, err := wire.ReadI64(r)
		if err != nil {
			return model.Value{}, err
		}
		return int64ToValue(v), nil
	case nativeF64:
		v, err := wire.ReadF64(r)
		if err != nil {
			return model.Value{}, err
		}
		return model.F64(v), nil
	case nativeBool:
		v, err := wire.ReadBool(r)
		if err != nil {
			return model.Value{}, err
		}
		return model.Bool(v), nil
	case nativeStr:
		v, err := wire.ReadLPString(r)
		if err != nil {
			return model.Value{}, err
		}
		return model.Str(v), nil
	default:
		// Per the redesign noted in §9 ("Open question -- unknown
		// types"), an unrecognized native type is a decode error for
		// this record rather than the source's silent uninitialized
		// value.
		return model.Value{}, fmt.Errorf("%w %d", errUnknownNativeType, ntyp)
	}
}

func decodeList(r *bytes.Reader) (model.Value, []model.Record, error) {
	count, err := wire.ReadU32(r)
	if err != nil {
		return model.Value{}, nil, err
	}

	ids := make([]model.Id, count)
	filled := make([]bool, count)
	var children []model.Record

	for i := uint32(0); i < count; i++ {
		index, err := wire.ReadU32(r)
		if err != nil {
			return model.Value{}, nil, err
		}
		if index >= count {
			return model.Value{}, nil, fmt.Errorf("appcodec: list index %d out of bounds (count %d)", index, count)
		}
		childID, childRecs, err := decodeType(r)
		if err != nil {
			if errors.Is(err, errUnknownNativeType) {
				log.Warn("skipping list index %d: %v", index, err)
				ids[index] = childID
				filled[index] = true
				continue
			}
			return model.Value{}, nil, err
		}
		ids[index] = childID
		filled[index] = true
		children = append(children, childRecs...)
	}

	for i, ok := range filled {
		if !ok {
			return model.Value{}, nil, fmt.Errorf("appcodec: list index %d skipped (malformed input)", i)
		}
	}

	return model.List(ids), children, nil
}

func decodeDict(r *bytes.Reader) (model.Value, []model.Record, error) {
	count, err := wire.ReadU32(r)
	if err != nil {
		return model.Value{}, nil, err
	}

	dict := make(map[string]model.Id, count)
	var children []model.Record

	for i := uint32(0); i < count; i++ {
		name, err := wire.ReadLPString(r)
		if err != nil {
			return model.Value{}, nil, err
		}
		name = canonicalize(name)

		childID, childRecs, err := decodeType(r)
		if err != nil {
			if errors.Is(err, errUnknownNativeType) {
				log.Warn("skipping dict key %q: %v", name, err)
				dict[name] = childID
				continue
			}
			return model.Value{}, nil, err
		}
		dict[name] = childID
		children = append(children, childRecs...)
	}

	return model.Dict(dict), children, nil
}

// int64ToValue maps an AppFormat i64 native onto one of the Value type's
// four integer kinds using the same magnitude rule TCPFormat's encoder uses
// (§4.2), so a value round-tripped through the Model picks the tag it would
// have picked had it arrived over TCPFormat in the first place. The data
// model has no 64-bit integer alternative (§3.1); a magnitude beyond what
// int32/uint32 can hold is vanishingly unlikely for the attributes this
// protocol mirrors, and is converted to F64 rather than truncated. The
// conversion is exact only up to 2^53 in magnitude and is not logged.
func int64ToValue(n int64) model.Value {
	switch {
	case n < -128:
		if n >= math.MinInt32 {
			return model.I32(int32(n))
		}
		return model.F64(float64(n))
	case n < 0:
		return model.I8(int8(n))
	case n <= 127:
		return model.U8(uint8(n))
	case n <= math.MaxUint32:
		return model.U32(uint32(n))
	default:
		return model.F64(float64(n))
	}
}

// canonicalize replaces name with the matching canonical spelling (§6.3) if
// one matches case-insensitively; the first match in Spelling wins.
// Non-matches pass through verbatim -- this is not an error condition.
func canonicalize(name string) string {
	for _, canon := range Spelling {
		if strings.EqualFold(canon, name) {
			return canon
		}
	}
	return name
}
