package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

func WriteField(w io.Writer, tag string, val any) error {
	switch tag {
	case "varint":
		_, err := WriteVarInt(w, val.(int32))
		return err
	case "varlong":
		_, err := WriteVarLong(w, val.(uint64))
		return err
	case "u8":
		return binary.Write(w, binary.BigEndian, val.(uint8))
	case "u16":
		return binary.Write(w, binary.BigEndian, val.(uint16))
	case "i32":
		return binary.Write(w, binary.BigEndian, val.(int32))
	case "string":
		_, err := WriteString(w, val.(string))
		return err
	case "uuid":
		uuid := val.([16]byte)
		_, err := w.Write(uuid[:])
		return err
	case "bytearray":
		_, err := WriteByteArray(w, val.([]byte))
		return err
	default:
		return fmt.Errorf("unknown field tag: %q", tag)
	}
}

func ReadField(r io.Reader, tag string) (any, error) {
	switch tag {
	case "varint":
		v, _, err := ReadVarInt(r)
		return v, err
	case "varlong":
		v, _, err := ReadVarLong(r)
		return v, err
	case "u8":
		return ReadU8(r)
	case "u16":
		return ReadU16(r)
	case "i32":
		return ReadI32(r)
	case "string":
		return ReadString(r)
	case "uuid":
		return ReadUUID(r)
	case "bytearray":
		return ReadByteArray(r)
	default:
		return nil, fmt.Errorf("unknown field tag: %q", tag)
	}
}
