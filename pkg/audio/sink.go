package audio

import (
	"io"
	"net/http"
	"sync"
	"time"
)

// defaultFrameDuration is how much audio each paced write carries.
const defaultFrameDuration = 20 * time.Millisecond

// Marshal converts a decoded buffer into the byte stream a [WriterSink]
// emits. [MarshalPCM16] produces raw PCM; [EncodeWAV] produces a playable
// WAV container.
type Marshal func(*Buffer) ([]byte, error)

// WriterSink streams a buffer to an io.Writer in real time, one frame per
// tick, so that stopping playback actually interrupts output. If the writer
// implements http.Flusher each frame is flushed — this is how the playback
// HTTP route delivers audio progressively.
type WriterSink struct {
	W io.Writer

	// Marshal converts the buffer before streaming. Nil means raw PCM16.
	Marshal Marshal

	// FrameDuration is the audio length per write. Zero means 20ms.
	FrameDuration time.Duration

	// Unpaced disables real-time pacing. Used in tests.
	Unpaced bool
}

// Start implements [Sink]. It spawns a goroutine that paces the marshalled
// bytes out and invokes onEnded when the clip completes or the write fails.
// Stopping the returned session halts the stream without calling onEnded.
func (s *WriterSink) Start(buf *Buffer, onEnded func()) (Session, error) {
	marshal := s.Marshal
	if marshal == nil {
		marshal = func(b *Buffer) ([]byte, error) { return MarshalPCM16(b), nil }
	}
	data, err := marshal(buf)
	if err != nil {
		return nil, err
	}

	frameDur := s.FrameDuration
	if frameDur <= 0 {
		frameDur = defaultFrameDuration
	}
	bytesPerFrame := int(int64(buf.Format.SampleRate*buf.Format.Channels*2) * int64(frameDur) / int64(time.Second))
	if bytesPerFrame <= 0 {
		bytesPerFrame = len(data)
	}

	sess := &writerSession{stop: make(chan struct{}), done: make(chan struct{})}
	go sess.run(s.W, data, bytesPerFrame, frameDur, s.Unpaced, onEnded)
	return sess, nil
}

type writerSession struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Stop implements [Session]. Idempotent. It returns only after the streaming
// goroutine has exited, so the underlying writer is never touched afterwards.
func (w *writerSession) Stop() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

func (w *writerSession) run(out io.Writer, data []byte, chunk int, frameDur time.Duration, unpaced bool, onEnded func()) {
	defer close(w.done)

	flusher, _ := out.(http.Flusher)

	var ticker *time.Ticker
	if !unpaced {
		ticker = time.NewTicker(frameDur)
		defer ticker.Stop()
	}

	for off := 0; off < len(data); off += chunk {
		if !unpaced {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
			}
		} else {
			select {
			case <-w.stop:
				return
			default:
			}
		}

		end := min(off+chunk, len(data))
		if _, err := out.Write(data[off:end]); err != nil {
			// The listener went away; treat it like a natural end.
			onEnded()
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	onEnded()
}
