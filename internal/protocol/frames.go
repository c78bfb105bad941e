package protocol

import (
	"github.com/google/uuid"

	"github.com/OCharnyshevich/chunkview/internal/mesh"
	"github.com/OCharnyshevich/chunkview/internal/worker"
)

// Frame ids. Server-to-client frames are below 0x10.
const (
	IDWelcome       int32 = 0x00
	IDChunkLoaded   int32 = 0x01
	IDSectionMesh   int32 = 0x02
	IDChunkUnloaded int32 = 0x03
	IDRequestBuild  int32 = 0x10
)

// Welcome is the first frame sent to a feed client.
type Welcome struct {
	ClientID [16]byte `wire:"uuid"`
	Version  string   `wire:"string"`
	Textures int32    `wire:"varint"`
}

func (Welcome) FrameID() int32 { return IDWelcome }

// ChunkLoaded summarises an applied chunk.
type ChunkLoaded struct {
	X           int32  `wire:"i32"`
	Z           int32  `wire:"i32"`
	Mask        uint16 `wire:"u16"`
	PaletteSize int32  `wire:"varint"`
}

func (ChunkLoaded) FrameID() int32 { return IDChunkLoaded }

// SectionMesh carries the geometry of one applied section build.
// Placements holds mesh.PlacementSize-byte records.
type SectionMesh struct {
	X           int32  `wire:"i32"`
	Z           int32  `wire:"i32"`
	Section     uint8  `wire:"u8"`
	BuildNumber uint64 `wire:"varlong"`
	Opaque      []byte `wire:"bytearray"`
	Transparent []byte `wire:"bytearray"`
	Placements  []byte `wire:"bytearray"`
}

func (SectionMesh) FrameID() int32 { return IDSectionMesh }

type ChunkUnloaded struct {
	X int32 `wire:"i32"`
	Z int32 `wire:"i32"`
}

func (ChunkUnloaded) FrameID() int32 { return IDChunkUnloaded }

// RequestBuild asks the server to rebuild one section.
type RequestBuild struct {
	X       int32 `wire:"i32"`
	Z       int32 `wire:"i32"`
	Section uint8 `wire:"u8"`
}

func (RequestBuild) FrameID() int32 { return IDRequestBuild }

func newFrame(id int32) Frame {
	switch id {
	case IDWelcome:
		return &Welcome{}
	case IDChunkLoaded:
		return &ChunkLoaded{}
	case IDSectionMesh:
		return &SectionMesh{}
	case IDChunkUnloaded:
		return &ChunkUnloaded{}
	case IDRequestBuild:
		return &RequestBuild{}
	}
	return nil
}

// NewWelcome builds the greeting for a client.
func NewWelcome(id uuid.UUID, version string, textures int) *Welcome {
	return &Welcome{ClientID: id, Version: version, Textures: int32(textures)}
}

// FromEvent converts a coordinator event into its feed frame.
func FromEvent(ev worker.Event) (Frame, bool) {
	switch ev.Kind {
	case worker.EventChunkLoaded:
		if ev.Loaded == nil {
			return nil, false
		}
		var mask uint16
		for i, s := range ev.Loaded.Sections {
			if s != nil {
				mask |= 1 << uint(i)
			}
		}
		return &ChunkLoaded{
			X:           int32(ev.X),
			Z:           int32(ev.Z),
			Mask:        mask,
			PaletteSize: int32(len(ev.Loaded.Palette)),
		}, true
	case worker.EventSectionBuilt:
		if ev.Mesh == nil {
			return nil, false
		}
		return &SectionMesh{
			X:           int32(ev.X),
			Z:           int32(ev.Z),
			Section:     uint8(ev.Section),
			BuildNumber: ev.Mesh.BuildNumber,
			Opaque:      ev.Mesh.Opaque,
			Transparent: ev.Mesh.Transparent,
			Placements:  mesh.EncodePlacements(ev.Mesh.Placements),
		}, true
	case worker.EventChunkUnloaded:
		return &ChunkUnloaded{X: int32(ev.X), Z: int32(ev.Z)}, true
	}
	return nil, false
}
