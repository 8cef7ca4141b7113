package tags

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2/flac"
	"github.com/llehouerou/go-mp3"
)

const (
	oggPageHeaderSize = 27
	opusSampleRate    = 48000
)

var (
	errNoOggPage       = errors.New("ogg: no page found")
	errUnknownOggCodec = errors.New("ogg: unknown codec (not Opus or Vorbis)")
)

// ReadAudioInfo reads audio stream properties (duration, format, sample rate).
// This uses lighter-weight methods than full decoding where possible.
func ReadAudioInfo(path string) (*AudioInfo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsMusicFile(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ExtMP3:
		return readMP3AudioInfo(f)
	case ExtFLAC:
		return readFLACStreamInfo(path)
	default:
		return readOggAudioInfo(f)
	}
}

// readMP3AudioInfo extracts audio info from an MP3 file.
func readMP3AudioInfo(f *os.File) (*AudioInfo, error) {
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, errors.New("mp3: invalid sample rate")
	}

	sampleCount := max(decoder.SampleCount(), 0)

	return &AudioInfo{
		Duration:   time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second)),
		Format:     "MP3",
		SampleRate: sampleRate,
	}, nil
}

// readFLACStreamInfo extracts audio info from FLAC streaminfo metadata.
func readFLACStreamInfo(path string) (*AudioInfo, error) {
	flacFile, err := goflac.ParseFile(path)
	if err != nil {
		// Files with a prepended ID3 tag fail to parse; the beep decoder skips it.
		return readFLACWithBeep(path)
	}

	for _, meta := range flacFile.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data

		// Sample rate: 20 bits starting at byte 10.
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		// Total samples: 36 bits starting at the low nibble of byte 13.
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])

		var duration time.Duration
		if sampleRate > 0 {
			duration = time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second))
		}

		return &AudioInfo{
			Duration:   duration,
			Format:     "FLAC",
			SampleRate: sampleRate,
		}, nil
	}

	return readFLACWithBeep(path)
}

// readFLACWithBeep uses beep's FLAC decoder as fallback.
func readFLACWithBeep(path string) (*AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := skipID3v2(f); err != nil {
		return nil, err
	}

	streamer, format, err := flac.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	return &AudioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Format:     "FLAC",
		SampleRate: int(format.SampleRate),
	}, nil
}

// readOggAudioInfo reads the codec header from the first Ogg page and the
// granule position of the last page.
func readOggAudioInfo(f io.ReadSeeker) (*AudioInfo, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	head = head[:n]

	payload, err := firstOggPacket(head)
	if err != nil {
		return nil, err
	}

	var (
		format     string
		sampleRate int
		preSkip    int64
	)
	switch {
	case len(payload) >= 19 && string(payload[:8]) == "OpusHead":
		format = "OPUS"
		sampleRate = opusSampleRate
		preSkip = int64(binary.LittleEndian.Uint16(payload[10:12]))
	case len(payload) >= 16 && payload[0] == 0x01 && string(payload[1:7]) == "vorbis":
		format = "VORBIS"
		sampleRate = int(binary.LittleEndian.Uint32(payload[12:16]))
	default:
		return nil, errUnknownOggCodec
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("ogg: invalid sample rate %d", sampleRate)
	}

	granule, err := lastOggGranule(f)
	if err != nil {
		return nil, err
	}
	samples := max(granule-preSkip, 0)

	return &AudioInfo{
		Duration:   time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second)),
		Format:     format,
		SampleRate: sampleRate,
	}, nil
}

// firstOggPacket returns the payload of the first page in buf.
func firstOggPacket(buf []byte) ([]byte, error) {
	if len(buf) < oggPageHeaderSize || string(buf[:4]) != "OggS" {
		return nil, errNoOggPage
	}
	segments := int(buf[26])
	if len(buf) < oggPageHeaderSize+segments {
		return nil, errNoOggPage
	}
	size := 0
	for _, s := range buf[oggPageHeaderSize : oggPageHeaderSize+segments] {
		size += int(s)
	}
	start := oggPageHeaderSize + segments
	end := min(start+size, len(buf))
	return buf[start:end], nil
}

// lastOggGranule searches the tail of the stream for the last page header.
func lastOggGranule(f io.ReadSeeker) (int64, error) {
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	// Read the last 64KB to find the last OGG page
	searchSize := min(int64(65536), end)
	if _, err := f.Seek(-searchSize, io.SeekEnd); err != nil {
		return 0, err
	}
	buf := make([]byte, searchSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return 0, err
	}

	i := bytes.LastIndex(buf, []byte("OggS"))
	for i >= 0 {
		if i+14 <= len(buf) {
			return int64(binary.LittleEndian.Uint64(buf[i+6 : i+14])), nil
		}
		i = bytes.LastIndex(buf[:i], []byte("OggS"))
	}
	return 0, errNoOggPage
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := r.Read(header)
	if err != nil {
		return err
	}
	if n < 10 || string(header[0:3]) != id3Magic {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
