package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EncodeWAV wraps raw 16-bit little-endian PCM in a playable RIFF/WAVE
// container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// DecodeWAV extracts 16-bit PCM from a RIFF/WAVE container. Only
// uncompressed 16-bit PCM is supported; other formats return an error.
func DecodeWAV(data []byte) (pcm []byte, sampleRate, channels int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("decode wav: not a RIFF/WAVE stream")
	}

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, fmt.Errorf("decode wav: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits := binary.LittleEndian.Uint16(data[body+14:])
			if format != 1 || bits != 16 {
				return nil, 0, 0, fmt.Errorf("decode wav: unsupported format %d/%d-bit", format, bits)
			}
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if sampleRate == 0 || pcm == nil {
		return nil, 0, 0, fmt.Errorf("decode wav: missing fmt or data chunk")
	}
	return pcm, sampleRate, channels, nil
}

// WriteWAVFile packages PCM as <title>.wav under dir and returns the path.
func WriteWAVFile(dir, title string, pcm []byte, sampleRate int) (string, error) {
	name := sanitizeFilename(title)
	if name == "" {
		name = "untitled"
	}
	path := filepath.Join(dir, name+".wav")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("write wav: %w", err)
	}
	if err := os.WriteFile(path, EncodeWAV(pcm, sampleRate, 1), 0o644); err != nil {
		return "", fmt.Errorf("write wav: %w", err)
	}
	return path, nil
}

func sanitizeFilename(title string) string {
	title = strings.TrimSpace(title)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
}
