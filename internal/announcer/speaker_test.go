package announcer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const voicesListing = `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-gb           --/M      English_(Great_Britain) gmw/en               (en 2)
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(args) == 1 && args[0] == "--voices" {
		return []byte(voicesListing), nil
	}
	return nil, f.err
}

func TestParseVoices(t *testing.T) {
	assert.Equal(t, []string{"gmw/af", "gmw/en", "gmw/en-US"}, parseVoices([]byte(voicesListing)))
	assert.Empty(t, parseVoices(nil))
}

func TestESpeak_SelectsVoiceByIndex(t *testing.T) {
	tests := []struct {
		name       string
		voiceIndex int
		wantVoice  string
		wantArgs   []string
	}{
		{"first voice", 0, "gmw/af", []string{"espeak-ng", "-v", "gmw/af", "Welcome alice"}},
		{"third voice", 2, "gmw/en-US", []string{"espeak-ng", "-v", "gmw/en-US", "Welcome alice"}},
		{"out of range keeps default", 9, "", []string{"espeak-ng", "Welcome alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			s, err := newESpeak(context.Background(), "espeak-ng", tt.voiceIndex, runner.run, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVoice, s.voice)

			require.NoError(t, s.Speak(context.Background(), "Welcome alice"))
			assert.Equal(t, tt.wantArgs, runner.calls[len(runner.calls)-1])
		})
	}
}

func TestESpeak_SpeakError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	s, err := newESpeak(context.Background(), "espeak", 0, runner.run, nil)
	require.NoError(t, err)

	err = s.Speak(context.Background(), "hello")
	assert.ErrorContains(t, err, "exit status 1")
}

func TestNewSpeaker(t *testing.T) {
	s, err := NewSpeaker(context.Background(), SpeakerLog, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogSpeaker{}, s)
	assert.NoError(t, s.Speak(context.Background(), "hello"))

	_, err = NewSpeaker(context.Background(), "sapi5", 0, nil)
	assert.Error(t, err)
}
