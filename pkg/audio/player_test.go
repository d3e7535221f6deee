package audio_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/letruong/futuresight/pkg/audio"
	"github.com/letruong/futuresight/pkg/audio/mock"
)

func TestPlayer_PlayWithoutPayloadIsNoop(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	sink := &mock.Sink{}
	if err := p.Play(sink); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if sink.Starts() != 0 {
		t.Errorf("sink started %d sessions, want 0", sink.Starts())
	}
	if p.State() != audio.StateIdle {
		t.Errorf("state = %v, want idle", p.State())
	}
}

func TestPlayer_PlayTwiceKeepsOneSession(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.SetPayload(pcm16(1, 2, 3, 4))
	sink := &mock.Sink{}

	if err := p.Play(sink); err != nil {
		t.Fatalf("first Play: %v", err)
	}
	// Second call while playing is a no-op.
	if err := p.Play(sink); err != nil {
		t.Fatalf("second Play: %v", err)
	}

	if sink.Starts() != 1 {
		t.Errorf("sink started %d sessions, want 1", sink.Starts())
	}
	if sink.Active() != 1 {
		t.Errorf("active sessions = %d, want 1", sink.Active())
	}
	if !p.IsPlaying() {
		t.Error("player should be playing")
	}
}

func TestPlayer_StopWhileIdleIsNoop(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.Stop()
	p.Stop()
	if p.State() != audio.StateIdle {
		t.Errorf("state = %v, want idle", p.State())
	}
}

func TestPlayer_StopHaltsSession(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.SetPayload(pcm16(1, 2))
	sink := &mock.Sink{}

	if err := p.Play(sink); err != nil {
		t.Fatal(err)
	}
	p.Stop()

	if !sink.Last().Stopped() {
		t.Error("session was not stopped")
	}
	if p.State() != audio.StateIdle {
		t.Errorf("state = %v, want idle", p.State())
	}

	// Stop again from the (already fired) natural-end path must be safe.
	p.Stop()
}

func TestPlayer_NaturalEndReturnsToIdle(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.SetPayload(pcm16(1, 2))
	sink := &mock.Sink{}

	if err := p.Play(sink); err != nil {
		t.Fatal(err)
	}
	sink.Last().Finish()

	if p.State() != audio.StateIdle {
		t.Errorf("state after natural end = %v, want idle", p.State())
	}

	// Replay after a natural end starts a fresh session.
	if err := p.Play(sink); err != nil {
		t.Fatal(err)
	}
	if sink.Starts() != 2 {
		t.Errorf("sink starts = %d, want 2", sink.Starts())
	}
}

func TestPlayer_StaleEndCallbackIgnoredAfterStop(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.SetPayload(pcm16(1, 2))
	sink := &mock.Sink{}

	if err := p.Play(sink); err != nil {
		t.Fatal(err)
	}
	first := sink.Last()
	p.Stop()

	if err := p.Play(sink); err != nil {
		t.Fatal(err)
	}
	// The old session's end callback arrives late; it must not knock the
	// new session out of the playing state.
	first.Finish()

	if !p.IsPlaying() {
		t.Error("late end callback from stopped session changed player state")
	}
}

func TestPlayer_MalformedPayloadStaysIdle(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.SetPayload("!!garbage!!")
	sink := &mock.Sink{}

	err := p.Play(sink)
	var de *audio.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if p.State() != audio.StateIdle {
		t.Errorf("state = %v, want idle", p.State())
	}
	if sink.Starts() != 0 {
		t.Errorf("sink started %d sessions, want 0", sink.Starts())
	}
}

func TestPlayer_SinkFailureIsPlaybackError(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.SetPayload(pcm16(1, 2))
	sink := &mock.Sink{FailStart: true}

	err := p.Play(sink)
	var pe *audio.PlaybackError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PlaybackError, got %v", err)
	}
	if p.State() != audio.StateIdle {
		t.Errorf("state = %v, want idle", p.State())
	}
}

func TestPlayer_SetPayloadClears(t *testing.T) {
	t.Parallel()

	p := audio.NewPlayer(audio.DefaultFormat)
	p.SetPayload(pcm16(1))
	if _, ok := p.Payload(); !ok {
		t.Fatal("payload should be set")
	}
	p.SetPayload("")
	if _, ok := p.Payload(); ok {
		t.Fatal("payload should be cleared")
	}
}

func TestWriterSink_StreamsAndEnds(t *testing.T) {
	t.Parallel()

	buf, err := audio.DecodePCM16(pcm16(1, 2, 3, 4, 5, 6), audio.DefaultFormat)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	ended := make(chan struct{})
	sink := &audio.WriterSink{W: &out, Unpaced: true}

	if _, err := sink.Start(buf, func() { close(ended) }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("sink never signalled end")
	}
	if out.Len() != 12 {
		t.Errorf("wrote %d bytes, want 12", out.Len())
	}
}

func TestWriterSink_StopInterrupts(t *testing.T) {
	t.Parallel()

	// One second of audio paced at 20ms frames takes ~1s to stream; Stop
	// must cut it off well before that.
	samples := make([]int16, 24000)
	buf, err := audio.DecodePCM16(pcm16(samples...), audio.DefaultFormat)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	sink := &audio.WriterSink{W: &out, FrameDuration: 5 * time.Millisecond}
	endCalled := make(chan struct{}, 1)
	sess, err := sink.Start(buf, func() { endCalled <- struct{}{} })
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	sess.Stop()
	sess.Stop() // idempotent

	select {
	case <-endCalled:
		t.Error("onEnded fired for an explicitly stopped session")
	case <-time.After(100 * time.Millisecond):
	}
	if out.Len() >= len(samples)*2 {
		t.Errorf("stream was not interrupted: wrote %d bytes", out.Len())
	}
}
