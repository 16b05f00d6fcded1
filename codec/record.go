// Package codec writes and reads records in protobuf wire format. The same
// record layout is stored in badger and carried over gRPC, so every field
// number here is part of both the on-disk and the wire format: never reuse one.
package codec

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Record is an encoded protobuf message under construction.
// Zero values are omitted the way proto3 does.
type Record []byte

func (r Record) Str(num protowire.Number, s string) Record {
	if s == "" {
		return r
	}
	r = protowire.AppendTag(r, num, protowire.BytesType)
	return protowire.AppendString(r, s)
}

func (r Record) Strs(num protowire.Number, ss []string) Record {
	for _, s := range ss {
		r = protowire.AppendTag(r, num, protowire.BytesType)
		r = protowire.AppendString(r, s)
	}
	return r
}

func (r Record) OptStr(num protowire.Number, s *string) Record {
	if s == nil {
		return r
	}
	r = protowire.AppendTag(r, num, protowire.BytesType)
	return protowire.AppendString(r, *s)
}

func (r Record) Bytes(num protowire.Number, b []byte) Record {
	if len(b) == 0 {
		return r
	}
	r = protowire.AppendTag(r, num, protowire.BytesType)
	return protowire.AppendBytes(r, b)
}

// Embed appends a nested message. An empty nested message is still written so
// that presence survives the round trip.
func (r Record) Embed(num protowire.Number, nested []byte) Record {
	r = protowire.AppendTag(r, num, protowire.BytesType)
	return protowire.AppendBytes(r, nested)
}

func (r Record) Varint(num protowire.Number, v int64) Record {
	if v == 0 {
		return r
	}
	r = protowire.AppendTag(r, num, protowire.VarintType)
	return protowire.AppendVarint(r, uint64(v))
}

func (r Record) OptInt(num protowire.Number, v *int64) Record {
	if v == nil {
		return r
	}
	r = protowire.AppendTag(r, num, protowire.VarintType)
	return protowire.AppendVarint(r, uint64(*v))
}

func (r Record) Flag(num protowire.Number, v bool) Record {
	if !v {
		return r
	}
	r = protowire.AppendTag(r, num, protowire.VarintType)
	return protowire.AppendVarint(r, protowire.EncodeBool(v))
}

// Time is stored as milliseconds since epoch.
func (r Record) Time(num protowire.Number, t time.Time) Record {
	if t.IsZero() {
		return r
	}
	return r.Varint(num, t.UnixMilli())
}

// Field is one decoded value. S holds length-delimited payloads, V varints.
type Field struct {
	Num protowire.Number
	S   string
	V   uint64
}

func (f Field) Int() int64 { return int64(f.V) }

func (f Field) Bool() bool { return protowire.DecodeBool(f.V) }

func (f Field) Bytes() []byte { return []byte(f.S) }

func (f Field) Time() time.Time { return time.UnixMilli(int64(f.V)).UTC() }

// Decode walks a record. Fields of other wire types are skipped.
func Decode(b []byte, fn func(f Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			s, m := protowire.ConsumeString(b)
			if m < 0 {
				return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(m))
			}
			if err := fn(Field{Num: num, S: s}); err != nil {
				return err
			}
			b = b[m:]
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(m))
			}
			if err := fn(Field{Num: num, V: v}); err != nil {
				return err
			}
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("skip field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return nil
}
