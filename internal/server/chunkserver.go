package server

import "github.com/NVIDIA/lstile/internal/wire"

// serveChunk implements the stateless STRING_CHUNK service (spec §4.2):
// duplicate requests yield identical responses, and an offset at or past
// end-of-string yields the zero-length terminator chunk.
func (o *Orchestrator) serveChunk(offset uint32, maxLen uint16) wire.StringChunk {
	total := uint32(len(o.s))
	if offset >= total {
		return wire.StringChunk{Offset: offset, DataLen: 0, TotalLen: total}
	}
	remaining := total - offset
	n := uint32(maxLen)
	if remaining < n {
		n = remaining
	}
	if n > MaxDataPerChunk {
		n = MaxDataPerChunk
	}
	return wire.StringChunk{
		Offset:   offset,
		DataLen:  uint16(n),
		TotalLen: total,
		Data:     []byte(o.s[offset : offset+n]),
	}
}
