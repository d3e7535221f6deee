package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV wraps the buffer's PCM data in a 16-bit WAV container so browsers
// can play it directly. The whole clip is encoded in memory; clips are a few
// minutes of 24 kHz mono at most.
func EncodeWAV(b *Buffer) ([]byte, error) {
	frames := b.Frames()
	data := make([]int, frames*b.Format.Channels)
	for ch, samples := range b.Samples {
		for i, sample := range samples {
			v := int(sample * 32768.0)
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			data[i*b.Format.Channels+ch] = v
		}
	}

	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, b.Format.SampleRate, 16, b.Format.Channels, 1)
	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: b.Format.Channels,
			SampleRate:  b.Format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("audio: wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("audio: wav finalize: %w", err)
	}
	return ws.buf, nil
}

// memWriteSeeker satisfies io.WriteSeeker over an in-memory byte slice.
// The wav encoder needs to seek back to patch chunk sizes on Close.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = m.pos + int(offset)
	case io.SeekEnd:
		next = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("audio: seek: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("audio: seek: negative position %d", next)
	}
	m.pos = next
	return int64(next), nil
}
