package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"time"
)

const providerTone = "tone"

// Tone implements Provider with a generated sine tone. It needs no
// credentials and always succeeds, guaranteeing the pipeline can deliver
// playable audio when no hosted synthesizer is configured.
type Tone struct {
	// Frequency of the tone in Hz.
	Frequency float64

	// SampleRate of the generated WAV in Hz.
	SampleRate int

	// Duration of the generated audio.
	Duration time.Duration

	// Amplitude of the tone (0-32767).
	Amplitude int
}

// NewTone creates the default fallback tone: 1 second of 440 Hz,
// 16 kHz mono PCM16 WAV.
func NewTone() *Tone {
	return &Tone{
		Frequency:  440.0,
		SampleRate: 16000,
		Duration:   time.Second,
		Amplitude:  12000,
	}
}

// Synthesize returns the generated tone regardless of text.
func (t *Tone) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	samples := int(float64(t.SampleRate) * t.Duration.Seconds())
	pcm := make([]byte, 0, samples*2)
	buf := make([]byte, 2)
	for i := 0; i < samples; i++ {
		v := float64(t.Amplitude) * math.Sin(2*math.Pi*t.Frequency*float64(i)/float64(t.SampleRate))
		binary.LittleEndian.PutUint16(buf, uint16(int16(v)))
		pcm = append(pcm, buf...)
	}

	return &AudioResult{
		Audio:     EncodeWAV(pcm, t.SampleRate, 1),
		Format:    AudioFormat{MIMEType: "audio/wav", SampleRate: t.SampleRate, Channels: 1},
		CharCount: len(text),
		Duration:  t.Duration,
		LatencyMs: 0,
	}, nil
}

// Health always succeeds; the tone generator has no dependencies.
func (t *Tone) Health(ctx context.Context) error {
	return nil
}

// Close releases resources. There are none.
func (t *Tone) Close() error {
	return nil
}

// EncodeWAV wraps raw PCM16 samples in a RIFF/WAVE container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(byteRate))
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}
