package tts_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/xccelera/voicegate/pkg/tts"
)

func TestToneSynthesize(t *testing.T) {
	tone := tts.NewTone()

	result, err := tone.Synthesize(context.Background(), "any text at all")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	audio := result.Audio
	if len(audio) < 44 {
		t.Fatalf("audio shorter than a WAV header: %d bytes", len(audio))
	}
	if string(audio[0:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		t.Error("expected RIFF/WAVE container")
	}

	sampleRate := binary.LittleEndian.Uint32(audio[24:28])
	if sampleRate != 16000 {
		t.Errorf("expected 16kHz, got %d", sampleRate)
	}
	channels := binary.LittleEndian.Uint16(audio[22:24])
	if channels != 1 {
		t.Errorf("expected mono, got %d channels", channels)
	}

	// One second of 16kHz mono PCM16.
	dataLen := binary.LittleEndian.Uint32(audio[40:44])
	if dataLen != 32000 {
		t.Errorf("expected 32000 data bytes, got %d", dataLen)
	}
	if result.Duration != time.Second {
		t.Errorf("expected 1s duration, got %v", result.Duration)
	}

	// The tone must actually contain signal, not silence.
	var nonzero bool
	for i := 44; i+1 < len(audio); i += 2 {
		if int16(binary.LittleEndian.Uint16(audio[i:i+2])) != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Error("expected audible samples, got silence")
	}
}

func TestToneHealth(t *testing.T) {
	tone := tts.NewTone()
	if err := tone.Health(context.Background()); err != nil {
		t.Errorf("expected always healthy, got %v", err)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 100)
	wav := tts.EncodeWAV(pcm, 44100, 2)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if binary.LittleEndian.Uint32(wav[4:8]) != uint32(36+len(pcm)) {
		t.Error("bad RIFF chunk size")
	}
	if binary.LittleEndian.Uint16(wav[22:24]) != 2 {
		t.Error("bad channel count")
	}
	if binary.LittleEndian.Uint32(wav[24:28]) != 44100 {
		t.Error("bad sample rate")
	}
	// byte rate = rate * channels * 2
	if binary.LittleEndian.Uint32(wav[28:32]) != 44100*2*2 {
		t.Error("bad byte rate")
	}
}
