// Package tcpcodec implements TCPFormat: the compact per-record wire format
// used for snapshots and deltas on the live data channel (transport.ChannelBatch).
//
// A frame is a concatenation of records:
//
//	record := tag:u8  id:u32  payload(tag)
//
// Decode reads records until the buffer is exhausted or an unknown tag is
// hit. Encode chooses the integer tag by the range rule in §4.2 of the
// protocol: a round-trip preserves bytes only if the source Value already
// carries the tag that rule would choose, which is why model.Value keeps
// four distinct integer kinds instead of normalizing to one Go int type.
package tcpcodec

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/cascadelabs/hudsync/pkg/model"
	"github.com/cascadelabs/hudsync/pkg/wire"
)

const (
	tagBool = 0
	tagI8   = 1
	tagU8   = 2
	tagI32  = 3
	tagU32  = 4
	tagF32  = 5
	tagStr  = 6
	tagList = 7
	tagDict = 8
)

// Decode reads records from buf until it is exhausted. If an unknown tag is
// encountered, the records successfully parsed so far are returned along
// with a non-nil error describing the offending tag; the caller may still
// apply the partial batch per §7's "Unknown TCPFormat tag" handling.
func Decode(buf []byte) ([]model.Record, error) {
	r := bytes.NewReader(buf)

	var records []model.Record
	for {
		tagByte, err := r.ReadByte()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}

		id, err := wire.ReadU32(r)
		if err != nil {
			return records, &wire.ErrTruncated{Offset: len(buf) - r.Len(), Err: err}
		}

		val, err := decodeValue(r, tagByte)
		if err != nil {
			return records, fmt.Errorf("tcpcodec: record %d: %w", id, err)
		}

		records = append(records, model.Record{Id: model.Id(id), Value: val})
	}
}

func decodeValue(r *bytes.Reader, tag byte) (model.Value, error) {
	switch tag {
	case tagBool:
		b, err := wire.ReadBool(r)
		return model.Bool(b), err
	case tagI8:
		i, err := wire.ReadI8(r)
		return model.I8(i), err
	case tagU8:
		u, err := wire.ReadU8(r)
		return model.U8(u), err
	case tagI32:
		i, err := wire.ReadI32(r)
		return model.I32(i), err
	case tagU32:
		u, err := wire.ReadU32(r)
		return model.U32(u), err
	case tagF32:
		f, err := wire.ReadF32(r)
		return model.F32(f), err
	case tagStr:
		s, err := wire.ReadCString(r)
		return model.Str(s), err
	case tagList:
		return decodeList(r)
	case tagDict:
		return decodeDict(r)
	default:
		return model.Value{}, fmt.Errorf("unknown tag %d", tag)
	}
}

func decodeList(r *bytes.Reader) (model.Value, error) {
	count, err := wire.ReadU16(r)
	if err != nil {
		return model.Value{}, err
	}
	ids := make([]model.Id, count)
	for i := range ids {
		v, err := wire.ReadU32(r)
		if err != nil {
			return model.Value{}, err
		}
		ids[i] = model.Id(v)
	}
	return model.List(ids), nil
}

func decodeDict(r *bytes.Reader) (model.Value, error) {
	count, err := wire.ReadU16(r)
	if err != nil {
		return model.Value{}, err
	}
	children := make(map[string]model.Id, count)
	for i := uint16(0); i < count; i++ {
		ref, err := wire.ReadU32(r)
		if err != nil {
			return model.Value{}, err
		}
		name, err := wire.ReadCString(r)
		if err != nil {
			return model.Value{}, err
		}
		children[name] = model.Id(ref)
	}
	// trailing reserved u16, always zero on write, ignored on read
	if _, err := wire.ReadU16(r); err != nil {
		return model.Value{}, err
	}
	return model.Dict(children), nil
}

// Encode appends every record in batch to buf using the TCPFormat wire
// layout and returns the resulting []byte.
func Encode(batch []model.Record) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range batch {
		if err := encodeRecord(&buf, rec); err != nil {
			return nil, fmt.Errorf("tcpcodec: record %d: %w", rec.Id, err)
		}
	}
	return buf.Bytes(), nil
}

func encodeRecord(buf *bytes.Buffer, rec model.Record) error {
	v := rec.Value
	switch v.Kind() {
	case model.KindBool:
		b, _ := v.AsBool()
		return encodeHeadAnd(buf, tagBool, rec.Id, func() error { return wire.WriteBool(buf, b) })
	case model.KindI8:
		i, _ := v.AsI8()
		return encodeIntTag(buf, rec.Id, int64(i))
	case model.KindU8:
		u, _ := v.AsU8()
		return encodeIntTag(buf, rec.Id, int64(u))
	case model.KindI32:
		i, _ := v.AsI32()
		return encodeIntTag(buf, rec.Id, int64(i))
	case model.KindU32:
		u, _ := v.AsU32()
		return encodeIntTag(buf, rec.Id, int64(u))
	case model.KindF32:
		f, _ := v.AsF32()
		return encodeHeadAnd(buf, tagF32, rec.Id, func() error { return wire.WriteF32(buf, f) })
	case model.KindStr:
		s, _ := v.AsStr()
		return encodeHeadAnd(buf, tagStr, rec.Id, func() error { return wire.WriteCString(buf, s) })
	case model.KindList:
		ids, _ := v.AsList()
		return encodeHeadAnd(buf, tagList, rec.Id, func() error { return encodeListBody(buf, ids) })
	case model.KindDict:
		children, _ := v.AsDict()
		return encodeHeadAnd(buf, tagDict, rec.Id, func() error { return encodeDictBody(buf, children) })
	default:
		return fmt.Errorf("unsupported value kind %v", v.Kind())
	}
}

// encodeIntTag implements the §4.2 integer tag-selection rule:
//
//	n < -128          -> tag 3 (I32)
//	-128 <= n < 0      -> tag 1 (I8)
//	0 <= n <= 127      -> tag 2 (U8)
//	n > 127            -> tag 4 (U32)
func encodeIntTag(buf *bytes.Buffer, id model.Id, n int64) error {
	switch {
	case n < -128:
		return encodeHeadAnd(buf, tagI32, id, func() error { return wire.WriteI32(buf, int32(n)) })
	case n < 0:
		return encodeHeadAnd(buf, tagI8, id, func() error { return wire.WriteI8(buf, int8(n)) })
	case n <= 127:
		return encodeHeadAnd(buf, tagU8, id, func() error { return wire.WriteU8(buf, uint8(n)) })
	default:
		return encodeHeadAnd(buf, tagU32, id, func() error { return wire.WriteU32(buf, uint32(n)) })
	}
}

func encodeHeadAnd(buf *bytes.Buffer, tag byte, id model.Id, body func() error) error {
	if err := wire.WriteU8(buf, tag); err != nil {
		return err
	}
	if err := wire.WriteU32(buf, uint32(id)); err != nil {
		return err
	}
	return body()
}

func encodeListBody(buf *bytes.Buffer, ids []model.Id) error {
	if err := wire.WriteU16(buf, uint16(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := wire.WriteU32(buf, uint32(id)); err != nil {
			return err
		}
	}
	return nil
}

func encodeDictBody(buf *bytes.Buffer, children map[string]model.Id) error {
	if err := wire.WriteU16(buf, uint16(len(children))); err != nil {
		return err
	}
	// entries are written in sorted name order so re-encoding a decoded
	// Dict reproduces the same bytes.
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id := children[name]
		if err := wire.WriteU32(buf, uint32(id)); err != nil {
			return err
		}
		if err := wire.WriteCString(buf, name); err != nil {
			return err
		}
	}
	// trailing reserved/unknown field, always zero on write
	return wire.WriteU16(buf, 0)
}
