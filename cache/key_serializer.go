package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// ErrUnserializableKey is returned for arguments that have no stable
// structural form, such as funcs and channels.
var ErrUnserializableKey = errors.New("cache: argument cannot be serialized into a stable key")

// defaultKeySerializer builds lower-cased keys from structural values only.
// Values implementing Keyer supply their own key; other values are rendered
// by kind. Identity-based values are rejected rather than keyed by address.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins method and serialized args with KeySeparator and lower-cases the result.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) (string, error) {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)

	for i, arg := range args {
		serialized, err := s.serializeValue(arg)
		if err != nil {
			return "", fmt.Errorf("arg %d: %w", i, err)
		}
		parts = append(parts, serialized)
	}

	return strings.ToLower(strings.Join(parts, KeySeparator)), nil
}

func (s *defaultKeySerializer) serializeValue(v any) (string, error) {
	if v == nil {
		return "nil", nil
	}

	if k, ok := v.(Keyer); ok {
		return k.CacheKey(), nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "", fmt.Errorf("%w: %s", ErrUnserializableKey, rv.Type())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil", nil
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil", nil
		}
		return s.serializeList("slice", rv)
	case reflect.Array:
		return s.serializeList("array", rv)
	}

	if isBasicKind(rv.Kind()) {
		return fmt.Sprintf("%v", v), nil
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeList(label string, rv reflect.Value) (string, error) {
	length := rv.Len()
	parts := make([]string, length)

	for i := 0; i < length; i++ {
		part, err := s.serializeValue(rv.Index(i).Interface())
		if err != nil {
			return "", err
		}
		parts[i] = part
	}

	return fmt.Sprintf("%s[%d]:{%s}", label, length, strings.Join(parts, ",")), nil
}

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

// jsonFallback renders maps and structs; encoding/json sorts map keys.
func (s *defaultKeySerializer) jsonFallback(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnserializableKey, err)
	}
	return "json:" + string(data), nil
}
