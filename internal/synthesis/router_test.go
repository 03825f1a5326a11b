package synthesis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

type fakeBackend struct {
	name      string
	available bool
	out       audio.Blob
	err       error

	mu    sync.Mutex
	calls []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Available(context.Context) bool { return f.available }

func (f *fakeBackend) Synthesize(_ context.Context, text string) (audio.Blob, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	return f.out, f.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTranscoder struct {
	err   error
	calls int
}

func (f *fakeTranscoder) Transcode(_ context.Context, in audio.Blob, target audio.Spec) (audio.Blob, error) {
	f.calls++
	if f.err != nil {
		return audio.Blob{}, f.err
	}
	return audio.Blob{Data: append([]byte("norm:"), in.Data...), Format: target.Format, SampleRate: target.SampleRate, Channels: target.Channels}, nil
}

func wavBlob(s string) audio.Blob {
	return audio.Blob{Data: []byte(s), Format: audio.FormatWAV}
}

var testRequest = Request{Transcript: "Good morning", Phonemes: "ɡʊd mˈɔːnɪŋ"}

func TestRouter_SkipsUnavailableAndFallsThroughFailure(t *testing.T) {
	a := &fakeBackend{name: "a", available: false}
	b := &fakeBackend{name: "b", available: true, err: errors.New("quota exceeded")}
	c := &fakeBackend{name: "c", available: true, out: wavBlob("c-audio")}
	d := &fakeBackend{name: "d", available: true, out: wavBlob("d-audio")}
	tc := &fakeTranscoder{}
	r := NewRouter([]Route{
		{Backend: a, Input: InputTranscript},
		{Backend: b, Input: InputTranscript},
		{Backend: c, Input: InputPhonemes},
		{Backend: d, Input: InputTranscript},
	}, tc, audio.PlaybackSpec(0))

	res, err := r.Synthesize(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.callCount() != 0 {
		t.Fatal("unavailable backend must not be called")
	}
	if b.callCount() != 1 || c.callCount() != 1 {
		t.Fatalf("expected b then c to be called once, got b=%d c=%d", b.callCount(), c.callCount())
	}
	if d.callCount() != 0 {
		t.Fatal("no backend after the winner may be called")
	}
	if res.Backend != "c" || res.Input != InputPhonemes {
		t.Fatalf("unexpected winner: %s/%s", res.Backend, res.Input)
	}
	if c.calls[0] != testRequest.Phonemes || b.calls[0] != testRequest.Transcript {
		t.Fatalf("backends received wrong input: b=%q c=%q", b.calls[0], c.calls[0])
	}
	if string(res.Audio.Data) != "norm:c-audio" || res.Audio.SampleRate != audio.DefaultPlaybackRate {
		t.Fatalf("expected normalized output, got %+v", res.Audio)
	}
	want := []AttemptOutcome{AttemptSkipped, AttemptFailed, AttemptSucceeded}
	if len(res.Attempts) != len(want) {
		t.Fatalf("unexpected attempts: %+v", res.Attempts)
	}
	for i, o := range want {
		if res.Attempts[i].Outcome != o {
			t.Fatalf("attempt %d: got %s want %s", i, res.Attempts[i].Outcome, o)
		}
	}
	if !errors.Is(res.Attempts[1].Err, ErrEngine) {
		t.Fatalf("failed attempt should wrap ErrEngine, got %v", res.Attempts[1].Err)
	}
}

func TestRouter_AllUnavailable(t *testing.T) {
	a := &fakeBackend{name: "a"}
	b := &fakeBackend{name: "b"}
	tc := &fakeTranscoder{}
	r := NewRouter([]Route{{Backend: a}, {Backend: b}}, tc, audio.PlaybackSpec(0))

	res, err := r.Synthesize(context.Background(), testRequest)
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
	if !errors.Is(err, ErrNoBackendAvailable) {
		t.Fatalf("expected ErrNoBackendAvailable, got %v", err)
	}
	var rerr *RouterError
	if !errors.As(err, &rerr) || len(rerr.Attempts) != 2 {
		t.Fatalf("expected attempts attached, got %v", err)
	}
	if a.callCount()+b.callCount() != 0 || tc.calls != 0 {
		t.Fatal("no Synthesize or Transcode call may happen when nothing is available")
	}
}

func TestRouter_EmptyRouteList(t *testing.T) {
	r := NewRouter(nil, &fakeTranscoder{}, audio.PlaybackSpec(0))
	if _, err := r.Synthesize(context.Background(), testRequest); !errors.Is(err, ErrNoBackendAvailable) {
		t.Fatalf("expected ErrNoBackendAvailable, got %v", err)
	}
}

func TestRouter_EmptyAudioCountsAsFailure(t *testing.T) {
	a := &fakeBackend{name: "a", available: true}
	r := NewRouter([]Route{{Backend: a, Input: InputTranscript}}, &fakeTranscoder{}, audio.PlaybackSpec(0))

	_, err := r.Synthesize(context.Background(), testRequest)
	var rerr *RouterError
	if !errors.As(err, &rerr) || rerr.Attempts[0].Outcome != AttemptFailed {
		t.Fatalf("expected failed attempt, got %v", err)
	}
}

func TestRouter_NormalizationFailureMovesOn(t *testing.T) {
	a := &fakeBackend{name: "a", available: true, out: wavBlob("broken")}
	tc := &fakeTranscoder{err: audio.ErrDecodeFailure}
	r := NewRouter([]Route{{Backend: a, Input: InputTranscript}}, tc, audio.PlaybackSpec(0))

	_, err := r.Synthesize(context.Background(), testRequest)
	var rerr *RouterError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RouterError, got %v", err)
	}
	if !errors.Is(rerr.Attempts[0].Err, ErrEngine) {
		t.Fatalf("normalization failure should be an engine failure, got %v", rerr.Attempts[0].Err)
	}
}

func TestRouter_MissingPhonemesSkipsPhonemeBackend(t *testing.T) {
	a := &fakeBackend{name: "a", available: true, out: wavBlob("a")}
	b := &fakeBackend{name: "b", available: true, out: wavBlob("b")}
	r := NewRouter([]Route{{Backend: a, Input: InputPhonemes}, {Backend: b, Input: InputTranscript}}, &fakeTranscoder{}, audio.PlaybackSpec(0))

	res, err := r.Synthesize(context.Background(), Request{Transcript: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.callCount() != 0 || res.Backend != "b" {
		t.Fatalf("expected phoneme backend skipped, got winner %s", res.Backend)
	}
}

func TestRouter_ObserverSeesEveryAttempt(t *testing.T) {
	a := &fakeBackend{name: "a"}
	b := &fakeBackend{name: "b", available: true, out: wavBlob("b")}
	var seen []string
	r := NewRouter([]Route{{Backend: a}, {Backend: b}}, &fakeTranscoder{}, audio.PlaybackSpec(0),
		WithAttemptObserver(func(at Attempt) { seen = append(seen, at.Backend+":"+string(at.Outcome)) }))

	if _, err := r.Synthesize(context.Background(), testRequest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a:skipped" || seen[1] != "b:succeeded" {
		t.Fatalf("unexpected observations: %v", seen)
	}
}

func TestParseInputKind(t *testing.T) {
	cases := map[string]InputKind{"": InputTranscript, "text": InputTranscript, "IPA": InputPhonemes, "phonemes": InputPhonemes}
	for in, want := range cases {
		got, err := ParseInputKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseInputKind(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseInputKind("morse"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
