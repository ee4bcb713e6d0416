package concept

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/katadb/katadb/internal/corerr"
	"github.com/katadb/katadb/schema"
)

// encodeValue serializes v to the bytes stored at its attribute key.
// The value's own ValueType (and therefore its decode path) is already
// fixed by the key's prefix byte, so the payload carries no type tag.
func encodeValue(v Value) []byte {
	switch v.Kind {
	case schema.ValueTypeBoolean:
		if v.Boolean {
			return []byte{1}
		}
		return []byte{0}
	case schema.ValueTypeInteger:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v.Integer))
		return buf
	case schema.ValueTypeDouble:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, math.Float64bits(v.Double))
		return buf
	case schema.ValueTypeDecimal:
		buf := make([]byte, 16)
		binary.BigEndian.PutUint64(buf[0:8], uint64(v.Decimal.Whole))
		binary.BigEndian.PutUint64(buf[8:16], uint64(v.Decimal.Fractional))
		return buf
	case schema.ValueTypeString:
		return []byte(v.Str)
	case schema.ValueTypeDate:
		return []byte(v.Date.Format("2006-01-02"))
	case schema.ValueTypeDateTime:
		return []byte(v.DateTime.Format("2006-01-02T15:04:05"))
	case schema.ValueTypeDateTimeTZ:
		return []byte(v.DateTimeTZ.Format(time.RFC3339))
	case schema.ValueTypeDuration:
		return []byte(v.Duration.String())
	default:
		return nil
	}
}

func decodeValue(vt schema.ValueType, raw []byte) (Value, error) {
	switch vt {
	case schema.ValueTypeBoolean:
		return Boolean(len(raw) > 0 && raw[0] != 0), nil
	case schema.ValueTypeInteger:
		if len(raw) != 8 {
			return Value{}, errDecodeLength(vt, len(raw))
		}
		return Integer(int64(binary.BigEndian.Uint64(raw))), nil
	case schema.ValueTypeDouble:
		if len(raw) != 8 {
			return Value{}, errDecodeLength(vt, len(raw))
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(raw))), nil
	case schema.ValueTypeDecimal:
		if len(raw) != 16 {
			return Value{}, errDecodeLength(vt, len(raw))
		}
		whole := int64(binary.BigEndian.Uint64(raw[0:8]))
		frac := int64(binary.BigEndian.Uint64(raw[8:16]))
		return DecimalValue(Decimal{Whole: whole, Fractional: frac}), nil
	case schema.ValueTypeString:
		return StringValue(string(raw)), nil
	case schema.ValueTypeDate:
		t, err := time.Parse("2006-01-02", string(raw))
		if err != nil {
			return Value{}, corerr.Wrap(corerr.Concept, "Concept", "malformed stored date", err)
		}
		return DateValue(t), nil
	case schema.ValueTypeDateTime:
		t, err := time.Parse("2006-01-02T15:04:05", string(raw))
		if err != nil {
			return Value{}, corerr.Wrap(corerr.Concept, "Concept", "malformed stored datetime", err)
		}
		return DateTimeValue(t), nil
	case schema.ValueTypeDateTimeTZ:
		t, err := time.Parse(time.RFC3339, string(raw))
		if err != nil {
			return Value{}, corerr.Wrap(corerr.Concept, "Concept", "malformed stored datetime-tz", err)
		}
		return DateTimeTZValue(t), nil
	case schema.ValueTypeDuration:
		d, err := ParseDuration(string(raw))
		if err != nil {
			return Value{}, corerr.Wrap(corerr.Concept, "Concept", "malformed stored duration", err)
		}
		return DurationValue(d), nil
	default:
		return Value{}, corerr.New(corerr.Concept, "Concept", "unsupported value type for decode", map[string]any{"value_type": vt.String()})
	}
}

func errDecodeLength(vt schema.ValueType, got int) error {
	return corerr.New(corerr.Concept, "Concept", "stored value has wrong byte length for its type",
		map[string]any{"value_type": vt.String(), "bytes": got})
}
