package services

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// CastInt16 converts samples to int16, truncating toward zero and saturating
// at the int16 range. NaN has no integer representation and becomes nodata.
func CastInt16(values []float64, nodata int16) []int16 {
	out := make([]int16, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			out[i] = nodata
		case v >= math.MaxInt16:
			out[i] = math.MaxInt16
		case v <= math.MinInt16:
			out[i] = math.MinInt16
		default:
			out[i] = int16(v)
		}
	}
	return out
}

// EncodeInt16BE serializes samples as big-endian 16-bit integers
func EncodeInt16BE(samples []int16) []byte {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.BigEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

// DecodeInt16BE is the inverse of EncodeInt16BE
func DecodeInt16BE(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of 2", len(data))
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(data[2*i:]))
	}
	return out, nil
}

// payloadChunk is the number of samples encoded per write
const payloadChunk = 32 * 1024

// WritePayload streams samples to w in big-endian order, row-major, with no
// header of any kind.
func WritePayload(w io.Writer, samples []int16) error {
	bw := bufio.NewWriter(w)
	for start := 0; start < len(samples); start += payloadChunk {
		end := min(start+payloadChunk, len(samples))
		if _, err := bw.Write(EncodeInt16BE(samples[start:end])); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writePayloadFile truncates path and dumps samples into it
func writePayloadFile(path string, samples []int16) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open payload: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close payload: %w", cerr)
		}
	}()

	if err := WritePayload(f, samples); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// ReadPayloadFile decodes an ASSET payload from disk
func ReadPayloadFile(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeInt16BE(data)
}
