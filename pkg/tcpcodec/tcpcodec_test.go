package tcpcodec

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/cascadelabs/hudsync/pkg/model"
)

// P2: integer tag selection
func TestIntTagSelection(t *testing.T) {
	cases := []struct {
		n   int64
		tag byte
	}{
		{-130, tagI32},
		{-128, tagI8},
		{-1, tagI8},
		{0, tagU8},
		{127, tagU8},
		{128, tagU32},
		{300, tagU32},
	}

	for _, c := range cases {
		var buf bytes.Buffer
		if err := encodeIntTag(&buf, 0, c.n); err != nil {
			t.Fatalf("encodeIntTag(%d): %v", c.n, err)
		}
		if got := buf.Bytes()[0]; got != c.tag {
			t.Errorf("n=%d: tag = %d, want %d", c.n, got, c.tag)
		}
	}
}

// Scenario 3: concrete encoded bytes for promoted integers.
func TestEncodeIntegerPromotion(t *testing.T) {
	got, err := Encode([]model.Record{{Id: 5, Value: model.I8(5)}})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 0x05, 0x00, 0x00, 0x00, 0x05}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode(I8(5)) = % x, want % x", got, want)
	}

	got, err = Encode([]model.Record{{Id: 5, Value: model.I32(-200)}})
	if err != nil {
		t.Fatal(err)
	}
	want = []byte{0x03, 0x05, 0x00, 0x00, 0x00, 0x38, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode(I32(-200)) = % x, want % x", got, want)
	}
}

// Scenario 4: dict encoding byte-for-byte.
func TestEncodeDict(t *testing.T) {
	got, err := Encode([]model.Record{{Id: 0, Value: model.Dict(map[string]model.Id{"A": 1})}})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x08, 0x00, 0x00, 0x00, 0x00, // tag=8, id=0
		0x01, 0x00, // count=1
		0x01, 0x00, 0x00, 0x00, // child-id 1
		0x41, 0x00, // "A\0"
		0x00, 0x00, // trailer
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode(Dict) = % x, want % x", got, want)
	}
}

// P3: dict trailer is always 0x00 0x00
func TestDictTrailer(t *testing.T) {
	buf, err := Encode([]model.Record{{Id: 0, Value: model.Dict(map[string]model.Id{"X": 1, "Y": 2})}})
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) < 2 {
		t.Fatal("buffer too short")
	}
	if buf[len(buf)-2] != 0x00 || buf[len(buf)-1] != 0x00 {
		t.Fatalf("trailer = % x, want 00 00", buf[len(buf)-2:])
	}
}

// P1: round trip for every kind produced by the encoder's own tag rule.
func TestRoundTrip(t *testing.T) {
	batch := []model.Record{
		{Id: 1, Value: model.Bool(true)},
		{Id: 2, Value: model.I8(-5)},
		{Id: 3, Value: model.U8(5)},
		{Id: 4, Value: model.I32(-1000)},
		{Id: 5, Value: model.U32(70000)},
		{Id: 6, Value: model.F32(3.5)},
		{Id: 7, Value: model.Str("hello")},
		{Id: 8, Value: model.List([]model.Id{1, 2, 3})},
		{Id: 9, Value: model.Dict(map[string]model.Id{"a": 1, "b": 2})},
	}

	encoded, err := Encode(batch)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, batch) {
		t.Fatalf("round trip mismatch:\ngot  %v\nwant %v", decoded, batch)
	}

	reencoded, err := Encode(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Fatalf("second encode differs:\n% x\n% x", encoded, reencoded)
	}
}

func TestDecodeUnknownTagTruncatesBatch(t *testing.T) {
	good, err := Encode([]model.Record{{Id: 1, Value: model.Bool(true)}})
	if err != nil {
		t.Fatal(err)
	}
	bad := append(good, 0xFF, 0x02, 0x00, 0x00, 0x00)

	records, err := Decode(bad)
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
	if len(records) != 1 || records[0].Id != 1 {
		t.Fatalf("records = %v, want the single valid prior record", records)
	}
}

func TestDecodeEmptyBuffer(t *testing.T) {
	records, err := Decode(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %v, want empty", records)
	}
}
