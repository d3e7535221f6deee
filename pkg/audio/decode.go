// Package audio implements the playback half of futuresight: decoding the
// base64 PCM16 payloads returned by the speech provider into normalized
// float buffers, wrapping them in WAV containers, and owning the single
// playback session through [Player].
package audio

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Format describes the sample rate and channel count of a decoded buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is what the speech provider returns: 24 kHz mono PCM16.
var DefaultFormat = Format{SampleRate: 24000, Channels: 1}

// Buffer holds decoded audio as one normalized float32 slice per channel.
// Samples are in the range [-1.0, 1.0).
type Buffer struct {
	Format  Format
	Samples [][]float32
}

// Frames returns the number of frames (samples per channel) in the buffer.
func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.Format.SampleRate)
}

// DecodeError reports a malformed audio payload. From the user's point of
// view it means the same as a failed synthesis call; callers surface it the
// same way.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio: decode: %s: %v", e.Reason, e.Err)
	}
	return "audio: decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodePCM16 decodes a base64-encoded little-endian signed 16-bit PCM
// payload into a normalized float buffer in the given format.
//
// A payload whose decoded byte length is not a multiple of two is rejected
// with a [DecodeError] rather than silently truncated.
func DecodePCM16(payload string, f Format) (*Buffer, error) {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid format %dHz/%dch", f.SampleRate, f.Channels)}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &DecodeError{Reason: "malformed base64", Err: err}
	}
	if len(raw)%2 != 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("odd byte count %d for int16 PCM", len(raw))}
	}

	sampleCount := len(raw) / 2
	frameCount := sampleCount / f.Channels

	buf := &Buffer{
		Format:  f,
		Samples: make([][]float32, f.Channels),
	}
	for ch := range f.Channels {
		data := make([]float32, frameCount)
		for i := range frameCount {
			off := (i*f.Channels + ch) * 2
			s := int16(raw[off]) | int16(raw[off+1])<<8
			data[i] = float32(s) / 32768.0
		}
		buf.Samples[ch] = data
	}
	return buf, nil
}

// MarshalPCM16 is the inverse of [DecodePCM16]: it interleaves the buffer's
// channels back into little-endian int16 PCM bytes. Samples are clamped to
// the int16 range.
func MarshalPCM16(b *Buffer) []byte {
	frames := b.Frames()
	out := make([]byte, frames*b.Format.Channels*2)
	for ch, data := range b.Samples {
		for i, sample := range data {
			v := int32(sample * 32768.0)
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			off := (i*b.Format.Channels + ch) * 2
			out[off] = byte(v)
			out[off+1] = byte(v >> 8)
		}
	}
	return out
}
