package chunk

import "encoding/binary"

// VoxelSource is anything that can be written as a chunk payload.
type VoxelSource interface {
	SectionMask() uint16
	Voxel(section, idx int) (id uint16, data, blockLight, skyLight uint8)
}

// EncodePayload serializes src for Decode. The reserved header carries the
// chunk coordinates as big-endian int32s.
func EncodePayload(x, z int32, src VoxelSource) []byte {
	mask := src.SectionMask()
	buf := make([]byte, PayloadSize(mask))

	binary.BigEndian.PutUint32(buf[0:], uint32(x))
	binary.BigEndian.PutUint32(buf[4:], uint32(z))
	binary.BigEndian.PutUint16(buf[headerReserved:], mask)

	off := HeaderSize
	for i := 0; i < SectionsPerColumn; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		for idx := 0; idx < SectionVolume; idx++ {
			id, data, bl, sl := src.Voxel(i, idx)
			binary.BigEndian.PutUint16(buf[off:], id)
			buf[off+2] = data
			buf[off+3] = bl
			buf[off+4] = sl
			off += RecordSize
		}
	}
	return buf
}
