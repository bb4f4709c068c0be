// Package pcm converts captured audio frames into the wire format the
// transcription backends accept: 16-bit signed little-endian PCM.
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"math"
)

// SampleRate is the capture rate every provider session is opened with.
const SampleRate = 16000

// MIMEType tags encoded payloads with their sample rate and encoding.
const MIMEType = "audio/pcm;rate=16000"

// Payload is an encoded audio frame ready for transmission.
type Payload struct {
	MIME string
	Data []byte
}

// EncodeFrame converts normalized float samples in [-1, 1] to 16-bit
// signed little-endian PCM. Samples map to round(s*32768) and are
// saturated to the int16 range; out-of-range input never wraps.
func EncodeFrame(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32768)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}
	return out
}

// FramePayload encodes one frame and tags it with the PCM format.
func FramePayload(samples []float32) Payload {
	return Payload{MIME: MIMEType, Data: EncodeFrame(samples)}
}

// Base64 returns the transport-safe text form of the payload for
// embedding in structured messages.
func (p Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}
