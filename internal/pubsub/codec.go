package pubsub

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Messages cross the bus as msgpack so each subscription decodes its own copy
// and no two actors ever share a message value. Only exported fields travel,
// so message types are checked before any handle is created for them.

// ErrUnsupportedMessage is returned when a message type or value would not
// arrive intact on the other side of the bus.
var ErrUnsupportedMessage = errors.New("pubsub: message cannot be copied across the bus")

func encode[T any](msg T) ([]byte, error) {
	return msgpack.Marshal(msg)
}

func decode[T any](payload []byte) (T, error) {
	var msg T
	err := msgpack.Unmarshal(payload, &msg)
	return msg, err
}

// codecPairs are the interfaces through which a type encodes itself. A type
// implementing one side of a pair must implement the other on its pointer.
var codecPairs = [][2]reflect.Type{
	{reflect.TypeOf((*msgpack.CustomEncoder)(nil)).Elem(), reflect.TypeOf((*msgpack.CustomDecoder)(nil)).Elem()},
	{reflect.TypeOf((*msgpack.Marshaler)(nil)).Elem(), reflect.TypeOf((*msgpack.Unmarshaler)(nil)).Elem()},
	{reflect.TypeOf((*encoding.BinaryMarshaler)(nil)).Elem(), reflect.TypeOf((*encoding.BinaryUnmarshaler)(nil)).Elem()},
	{reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem(), reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()},
}

func selfCoding(t reflect.Type) bool {
	ptr := reflect.PointerTo(t)
	for _, pair := range codecPairs {
		if (t.Implements(pair[0]) || ptr.Implements(pair[0])) && ptr.Implements(pair[1]) {
			return true
		}
	}
	return false
}

// checkCopyable reports why values of t would lose data on the bus: an
// unexported or skipped field, or a func, chan or interface anywhere inside.
// Types with their own codec, such as time.Time, are trusted.
func checkCopyable(t reflect.Type) error {
	if err := walkCopyable(t, t.String(), make(map[reflect.Type]bool)); err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedMessage, err)
	}
	return nil
}

func walkCopyable(t reflect.Type, path string, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	if selfCoding(t) {
		return nil
	}

	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer,
		reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("%s is a %s", path, t.Kind())
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return walkCopyable(t.Elem(), path+"[]", seen)
	case reflect.Map:
		if err := walkCopyable(t.Key(), path+"{key}", seen); err != nil {
			return err
		}
		return walkCopyable(t.Elem(), path+"{}", seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			fieldPath := path + "." + f.Name
			if name, _, _ := strings.Cut(f.Tag.Get("msgpack"), ","); name == "-" {
				return fmt.Errorf("%s is excluded from encoding", fieldPath)
			}
			if !f.IsExported() {
				// Embedded structs are inlined, so only their own fields matter.
				if f.Anonymous && f.Type.Kind() == reflect.Struct && !selfCoding(f.Type) {
					if err := walkCopyable(f.Type, fieldPath, seen); err != nil {
						return err
					}
					continue
				}
				return fmt.Errorf("%s is unexported", fieldPath)
			}
			if err := walkCopyable(f.Type, fieldPath, seen); err != nil {
				return err
			}
		}
	}
	return nil
}
