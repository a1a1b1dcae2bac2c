package wire

import "github.com/pkg/errors"

// StackEntry is one (x, y, heading) triple carried in a HANDOVER's bracket
// stack. The orchestrator never interprets these; it only forwards them
// byte-for-byte (spec §9).
type StackEntry struct {
	X, Y    uint16
	Heading int16
}

const stackEntrySize = 2 + 2 + 2

// Register is the REGISTER payload (Node -> Orch).
type Register struct {
	NodePort uint16
}

func DecodeRegister(p []byte) (Register, error) {
	if len(p) < 2 {
		return Register{}, errors.New("wire: REGISTER payload too short")
	}
	return Register{NodePort: getU16(p)}, nil
}

func EncodeRegister(m Register) []byte {
	b := make([]byte, 2)
	putU16(b, m.NodePort)
	return b
}

// Config is the CONFIG payload (Orch -> Node).
type Config struct {
	NodeID   uint8
	StepSize uint8
	Angle    uint16
	XMin     uint16
	XMax     uint16
	YMin     uint16
	YMax     uint16
}

func EncodeConfig(m Config) []byte {
	b := make([]byte, 12)
	b[0] = m.NodeID
	b[1] = m.StepSize
	putU16(b[2:], m.Angle)
	putU16(b[4:], m.XMin)
	putU16(b[6:], m.XMax)
	putU16(b[8:], m.YMin)
	putU16(b[10:], m.YMax)
	return b
}

func DecodeConfig(p []byte) (Config, error) {
	if len(p) < 12 {
		return Config{}, errors.New("wire: CONFIG payload too short")
	}
	return Config{
		NodeID:   p[0],
		StepSize: p[1],
		Angle:    getU16(p[2:]),
		XMin:     getU16(p[4:]),
		XMax:     getU16(p[6:]),
		YMin:     getU16(p[8:]),
		YMax:     getU16(p[10:]),
	}, nil
}

// StringChunk is the STRING_CHUNK payload (Orch -> Node).
type StringChunk struct {
	Offset   uint32
	DataLen  uint16
	TotalLen uint32
	Data     []byte
}

func EncodeStringChunk(m StringChunk) []byte {
	b := make([]byte, 10+len(m.Data))
	putU32(b[0:], m.Offset)
	putU16(b[4:], m.DataLen)
	putU32(b[6:], m.TotalLen)
	copy(b[10:], m.Data)
	return b
}

func DecodeStringChunk(p []byte) (StringChunk, error) {
	if len(p) < 10 {
		return StringChunk{}, errors.New("wire: STRING_CHUNK payload too short")
	}
	dataLen := getU16(p[4:])
	if len(p) < 10+int(dataLen) {
		return StringChunk{}, errors.New("wire: STRING_CHUNK data truncated")
	}
	data := make([]byte, dataLen)
	copy(data, p[10:10+int(dataLen)])
	return StringChunk{
		Offset:   getU32(p[0:]),
		DataLen:  dataLen,
		TotalLen: getU32(p[6:]),
		Data:     data,
	}, nil
}

// RequestChunk is the REQUEST_CHUNK payload (Node -> Orch).
type RequestChunk struct {
	Offset  uint32
	MaxLen  uint16
}

func DecodeRequestChunk(p []byte) (RequestChunk, error) {
	if len(p) < 6 {
		return RequestChunk{}, errors.New("wire: REQUEST_CHUNK payload too short")
	}
	return RequestChunk{Offset: getU32(p[0:]), MaxLen: getU16(p[4:])}, nil
}

func EncodeRequestChunk(m RequestChunk) []byte {
	b := make([]byte, 6)
	putU32(b[0:], m.Offset)
	putU16(b[4:], m.MaxLen)
	return b
}

// Start is the START payload (Orch -> Node).
type Start struct {
	StartX     uint16
	StartY     uint16
	StartAngle int16
	StringPos  uint32
}

func EncodeStart(m Start) []byte {
	b := make([]byte, 10)
	putU16(b[0:], m.StartX)
	putU16(b[2:], m.StartY)
	putI16(b[4:], m.StartAngle)
	putU32(b[6:], m.StringPos)
	return b
}

func DecodeStart(p []byte) (Start, error) {
	if len(p) < 10 {
		return Start{}, errors.New("wire: START payload too short")
	}
	return Start{
		StartX:     getU16(p[0:]),
		StartY:     getU16(p[2:]),
		StartAngle: getI16(p[4:]),
		StringPos:  getU32(p[6:]),
	}, nil
}

// Handover is the HANDOVER payload (both directions).
type Handover struct {
	TargetNodeID uint8
	ExitDir      uint8
	StringPos    uint32
	CurrentX     uint16
	CurrentY     uint16
	CurrentAngle int16
	Stack        []StackEntry
}

const handoverFixedSize = 1 + 1 + 4 + 2 + 2 + 2 + 2 // ... + StackDepth u16

func EncodeHandover(m Handover) []byte {
	b := make([]byte, handoverFixedSize+len(m.Stack)*stackEntrySize)
	b[0] = m.TargetNodeID
	b[1] = m.ExitDir
	putU32(b[2:], m.StringPos)
	putU16(b[6:], m.CurrentX)
	putU16(b[8:], m.CurrentY)
	putI16(b[10:], m.CurrentAngle)
	putU16(b[12:], uint16(len(m.Stack)))
	off := handoverFixedSize
	for _, e := range m.Stack {
		putU16(b[off:], e.X)
		putU16(b[off+2:], e.Y)
		putI16(b[off+4:], e.Heading)
		off += stackEntrySize
	}
	return b
}

func DecodeHandover(p []byte) (Handover, error) {
	if len(p) < handoverFixedSize {
		return Handover{}, errors.New("wire: HANDOVER payload too short")
	}
	depth := int(getU16(p[12:]))
	need := handoverFixedSize + depth*stackEntrySize
	if len(p) < need {
		return Handover{}, errors.New("wire: HANDOVER stack truncated")
	}
	m := Handover{
		TargetNodeID: p[0],
		ExitDir:      p[1],
		StringPos:    getU32(p[2:]),
		CurrentX:     getU16(p[6:]),
		CurrentY:     getU16(p[8:]),
		CurrentAngle: getI16(p[10:]),
		Stack:        make([]StackEntry, depth),
	}
	off := handoverFixedSize
	for i := 0; i < depth; i++ {
		m.Stack[i] = StackEntry{
			X:       getU16(p[off:]),
			Y:       getU16(p[off+2:]),
			Heading: getI16(p[off+4:]),
		}
		off += stackEntrySize
	}
	return m, nil
}

// Done is the DONE payload (Node -> Orch).
type Done struct {
	NodeID     uint8
	TotalSteps uint32
}

func DecodeDone(p []byte) (Done, error) {
	if len(p) < 5 {
		return Done{}, errors.New("wire: DONE payload too short")
	}
	return Done{NodeID: p[0], TotalSteps: getU32(p[1:])}, nil
}

func EncodeDone(m Done) []byte {
	b := make([]byte, 5)
	b[0] = m.NodeID
	putU32(b[1:], m.TotalSteps)
	return b
}

// Upload is the UPLOAD payload (Node -> Orch).
type Upload struct {
	NodeID         uint8
	TotalWidth     uint8
	TotalHeight    uint8
	FragmentID     uint8
	TotalFragments uint8
	RowStart       uint16
	RowCount       uint16
	Pixels         []byte
}

const uploadFixedSize = 1 + 1 + 1 + 1 + 1 + 2 + 2

func DecodeUpload(p []byte) (Upload, error) {
	if len(p) < uploadFixedSize {
		return Upload{}, errors.New("wire: UPLOAD payload too short")
	}
	m := Upload{
		NodeID:         p[0],
		TotalWidth:     p[1],
		TotalHeight:    p[2],
		FragmentID:     p[3],
		TotalFragments: p[4],
		RowStart:       getU16(p[5:]),
		RowCount:       getU16(p[7:]),
	}
	need := int(m.RowCount) * int(m.TotalWidth)
	if len(p) < uploadFixedSize+need {
		return Upload{}, errors.New("wire: UPLOAD pixels truncated")
	}
	m.Pixels = make([]byte, need)
	copy(m.Pixels, p[uploadFixedSize:uploadFixedSize+need])
	return m, nil
}

func EncodeUpload(m Upload) []byte {
	b := make([]byte, uploadFixedSize+len(m.Pixels))
	b[0] = m.NodeID
	b[1] = m.TotalWidth
	b[2] = m.TotalHeight
	b[3] = m.FragmentID
	b[4] = m.TotalFragments
	putU16(b[5:], m.RowStart)
	putU16(b[7:], m.RowCount)
	copy(b[uploadFixedSize:], m.Pixels)
	return b
}

// Ack is the ACK payload.
type Ack struct {
	AckedType uint8
	AckedSeq  uint8
}

func DecodeAck(p []byte) (Ack, error) {
	if len(p) < 2 {
		return Ack{}, errors.New("wire: ACK payload too short")
	}
	return Ack{AckedType: p[0], AckedSeq: p[1]}, nil
}

func EncodeAck(m Ack) []byte {
	return []byte{m.AckedType, m.AckedSeq}
}

// Error is the ERROR payload.
type Error struct {
	ErrorCode uint8
	Message   []byte
}

func DecodeError(p []byte) (Error, error) {
	if len(p) < 1 {
		return Error{}, errors.New("wire: ERROR payload too short")
	}
	msg := make([]byte, len(p)-1)
	copy(msg, p[1:])
	return Error{ErrorCode: p[0], Message: msg}, nil
}

func EncodeError(m Error) []byte {
	b := make([]byte, 1+len(m.Message))
	b[0] = m.ErrorCode
	copy(b[1:], m.Message)
	return b
}
