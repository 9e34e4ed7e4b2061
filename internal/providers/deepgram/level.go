package deepgram

import (
	"encoding/binary"
	"math"
)

// silenceFloorDB is reported for digital silence.
const silenceFloorDB = -96.0

// rmsDBFS returns the RMS level of s16le PCM relative to full scale.
func rmsDBFS(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return silenceFloorDB
	}

	var sum float64
	for i := 0; i < samples; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(samples))
	if rms == 0 {
		return silenceFloorDB
	}
	return math.Max(20*math.Log10(rms/32768), silenceFloorDB)
}
