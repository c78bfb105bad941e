package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
)

const tagName = "wire"

// ErrUnknownFrame is returned by Decode for an unregistered frame id.
var ErrUnknownFrame = errors.New("unknown frame")

// Frame is one message on the viewer feed.
type Frame interface {
	FrameID() int32
}

// Marshal encodes a Frame struct into bytes using wire struct tags.
func Marshal(f Frame) ([]byte, error) {
	v := reflect.ValueOf(f)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("marshal: expected struct, got %s", v.Kind())
	}

	var buf bytes.Buffer
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		if err := WriteField(&buf, tag, v.Field(i).Interface()); err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", field.Name, err)
		}
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes bytes into a Frame struct using wire struct tags.
// Trailing bytes are an error.
func Unmarshal(data []byte, f Frame) error {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("unmarshal: expected non-nil pointer, got %T", f)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal: expected pointer to struct, got pointer to %s", v.Kind())
	}

	r := bytes.NewReader(data)
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		val, err := ReadField(r, tag)
		if err != nil {
			return fmt.Errorf("unmarshal field %s: %w", field.Name, err)
		}

		fv := v.Field(i)
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(fv.Type()) {
			return fmt.Errorf("unmarshal field %s: cannot assign %s to %s", field.Name, rv.Type(), fv.Type())
		}
		fv.Set(rv)
	}

	if r.Len() != 0 {
		return fmt.Errorf("unmarshal %T: %d trailing bytes", f, r.Len())
	}
	return nil
}

// Encode returns the frame id as a varint followed by the marshalled fields.
func Encode(f Frame) ([]byte, error) {
	body, err := Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal frame 0x%02X: %w", f.FrameID(), err)
	}
	id := f.FrameID()
	out := make([]byte, VarIntSize(id), VarIntSize(id)+len(body))
	PutVarInt(out, id)
	return append(out, body...), nil
}

// Decode parses a frame produced by Encode.
func Decode(data []byte) (Frame, error) {
	r := bytes.NewReader(data)
	id, n, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("read frame id: %w", err)
	}
	f := newFrame(id)
	if f == nil {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownFrame, id)
	}
	if err := Unmarshal(data[n:], f); err != nil {
		return nil, err
	}
	return f, nil
}
