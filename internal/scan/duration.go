package scan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// format identifies an audio container.
type format int

const (
	formatUnknown format = iota
	formatMP3
	formatFLAC
	formatOGG
	formatMP4
)

// sniffFormat identifies the container by magic bytes and returns the
// offset of the audio payload. A leading ID3v2 block is skipped first so
// tagged MP3 and FLAC files both identify by what follows it.
func sniffFormat(r io.ReadSeeker) (format, int64, error) {
	start, err := skipID3v2(r)
	if err != nil {
		return formatUnknown, 0, err
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return formatUnknown, 0, err
	}
	var magic [12]byte
	n, err := io.ReadFull(r, magic[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return formatUnknown, 0, err
	}
	b := magic[:n]
	switch {
	case len(b) >= 4 && string(b[:4]) == "fLaC":
		return formatFLAC, start, nil
	case len(b) >= 4 && string(b[:4]) == "OggS":
		return formatOGG, start, nil
	case len(b) >= 8 && string(b[4:8]) == "ftyp":
		return formatMP4, start, nil
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return formatMP3, start, nil
	case start > 0:
		// An ID3 block with padding before the first frame sync still
		// means MP3; the frame scan sorts it out.
		return formatMP3, start, nil
	}
	return formatUnknown, 0, nil
}

// skipID3v2 returns the offset of the first byte after a leading ID3v2
// block, or 0 when none is present.
func skipID3v2(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	var header [10]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil
		}
		return 0, err
	}
	if string(header[:3]) != "ID3" {
		return 0, nil
	}
	size := int64(syncsafe(header[6:10]))
	if header[5]&0x10 != 0 {
		size += 10 // footer
	}
	return 10 + size, nil
}

// syncsafe decodes a 4-byte syncsafe integer, 7 bits per byte.
func syncsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 | uint32(b[1]&0x7F)<<14 | uint32(b[2]&0x7F)<<7 | uint32(b[3]&0x7F)
}

// readDuration probes the audio payload for its play length. r addresses
// the payload only, with any leading tag block already stripped.
func readDuration(r io.ReadSeeker, size int64, fm format) (time.Duration, error) {
	switch fm {
	case formatMP3:
		return mp3Duration(r, size)
	case formatFLAC:
		return flacDuration(r)
	case formatOGG:
		return oggDuration(r, size)
	case formatMP4:
		return mp4Duration(r, size)
	}
	return 0, errors.New("no duration probe for format")
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// flacDuration reads total samples and sample rate from the STREAMINFO
// metadata block.
func flacDuration(r io.ReadSeeker) (time.Duration, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, err
	}
	if string(magic[:]) != "fLaC" {
		return 0, errors.New("flac: missing stream marker")
	}
	for {
		var head [4]byte
		if _, err := io.ReadFull(r, head[:]); err != nil {
			return 0, err
		}
		last := head[0]&0x80 != 0
		blockType := head[0] & 0x7F
		length := int64(head[1])<<16 | int64(head[2])<<8 | int64(head[3])
		if blockType == 0 {
			if length < 18 {
				return 0, errors.New("flac: short STREAMINFO block")
			}
			info := make([]byte, 18)
			if _, err := io.ReadFull(r, info); err != nil {
				return 0, err
			}
			// 20 bits sample rate, 3 bits channels, 5 bits depth,
			// 36 bits total samples.
			v := binary.BigEndian.Uint64(info[10:18])
			sampleRate := v >> 44
			totalSamples := v & (1<<36 - 1)
			if sampleRate == 0 {
				return 0, errors.New("flac: zero sample rate")
			}
			return secondsToDuration(float64(totalSamples) / float64(sampleRate)), nil
		}
		if last {
			return 0, errors.New("flac: no STREAMINFO block")
		}
		if _, err := r.Seek(length, io.SeekCurrent); err != nil {
			return 0, err
		}
	}
}

// oggDuration divides the final page's granule position by the Vorbis
// sample rate. Only Vorbis streams are understood; an Ogg container
// holding another codec fails.
func oggDuration(r io.ReadSeeker, size int64) (time.Duration, error) {
	sampleRate, err := vorbisSampleRate(r)
	if err != nil {
		return 0, err
	}
	granule, err := lastOggGranule(r, size)
	if err != nil {
		return 0, err
	}
	return secondsToDuration(float64(granule) / float64(sampleRate)), nil
}

// vorbisSampleRate reads the identification header from the first page.
func vorbisSampleRate(r io.ReadSeeker) (uint32, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	head := make([]byte, 27)
	if _, err := io.ReadFull(r, head); err != nil {
		return 0, err
	}
	if string(head[:4]) != "OggS" {
		return 0, errors.New("ogg: missing capture pattern")
	}
	segs := make([]byte, int(head[26]))
	if _, err := io.ReadFull(r, segs); err != nil {
		return 0, err
	}
	packet := make([]byte, 16)
	if _, err := io.ReadFull(r, packet); err != nil {
		return 0, err
	}
	if packet[0] != 0x01 || string(packet[1:7]) != "vorbis" {
		return 0, errors.New("ogg: not a vorbis stream")
	}
	rate := binary.LittleEndian.Uint32(packet[12:16])
	if rate == 0 {
		return 0, errors.New("ogg: zero sample rate")
	}
	return rate, nil
}

// lastOggGranule finds the last page in the stream tail and returns its
// granule position.
func lastOggGranule(r io.ReadSeeker, size int64) (uint64, error) {
	const tailWindow = 64 * 1024
	start := size - tailWindow
	if start < 0 {
		start = 0
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	buf := make([]byte, size-start)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	for i := len(buf) - 27; i >= 0; i-- {
		if buf[i] != 'O' || string(buf[i:i+4]) != "OggS" || buf[i+4] != 0 {
			continue
		}
		granule := binary.LittleEndian.Uint64(buf[i+6 : i+14])
		if granule == ^uint64(0) {
			continue // no packet finishes on this page
		}
		return granule, nil
	}
	return 0, errors.New("ogg: no page found in stream tail")
}

// mp4Duration walks the box tree to moov.mvhd and divides the movie
// duration by its timescale.
func mp4Duration(r io.ReadSeeker, size int64) (time.Duration, error) {
	moov, moovSize, err := findBox(r, 0, size, "moov")
	if err != nil {
		return 0, err
	}
	mvhd, _, err := findBox(r, moov, moov+moovSize, "mvhd")
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(mvhd, io.SeekStart); err != nil {
		return 0, err
	}
	buf := make([]byte, 32)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	if buf[0] == 1 {
		// Version 1 carries 64-bit creation and modification times.
		timescale := binary.BigEndian.Uint32(buf[20:24])
		if timescale == 0 {
			return 0, errors.New("mp4: zero timescale")
		}
		duration := binary.BigEndian.Uint64(buf[24:32])
		return secondsToDuration(float64(duration) / float64(timescale)), nil
	}
	timescale := binary.BigEndian.Uint32(buf[12:16])
	if timescale == 0 {
		return 0, errors.New("mp4: zero timescale")
	}
	duration := binary.BigEndian.Uint32(buf[16:20])
	return secondsToDuration(float64(duration) / float64(timescale)), nil
}

// findBox scans a box sequence in [start, end) for the named box,
// returning the offset and size of its payload.
func findBox(r io.ReadSeeker, start, end int64, name string) (int64, int64, error) {
	offset := start
	head := make([]byte, 8)
	for offset+8 <= end {
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return 0, 0, err
		}
		if _, err := io.ReadFull(r, head); err != nil {
			return 0, 0, err
		}
		boxSize := int64(binary.BigEndian.Uint32(head[:4]))
		boxType := string(head[4:8])
		headerLen := int64(8)
		switch boxSize {
		case 0:
			boxSize = end - offset
		case 1:
			var large [8]byte
			if _, err := io.ReadFull(r, large[:]); err != nil {
				return 0, 0, err
			}
			boxSize = int64(binary.BigEndian.Uint64(large[:]))
			headerLen = 16
		}
		if boxSize < headerLen {
			return 0, 0, fmt.Errorf("mp4: box %q has impossible size %d", boxType, boxSize)
		}
		if boxType == name {
			return offset + headerLen, boxSize - headerLen, nil
		}
		offset += boxSize
	}
	return 0, 0, fmt.Errorf("mp4: no %s box found", name)
}

// mp3Bitrates holds kbit/s by bitrate index. Rows: MPEG1 layers I-III,
// then MPEG2/2.5 layer I and layers II-III.
var mp3Bitrates = [5][15]int{
	{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
	{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
	{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
	{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
	{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
}

// mp3SampleRates holds Hz by version and sample rate index.
var mp3SampleRates = [3][3]int{
	{44100, 48000, 32000},
	{22050, 24000, 16000},
	{11025, 12000, 8000},
}

// mp3Header is one decoded MPEG audio frame header.
type mp3Header struct {
	version    int // 0 = MPEG1, 1 = MPEG2, 2 = MPEG2.5
	layer      int // 1, 2, 3
	bitrate    int // bits per second, 0 = free format
	sampleRate int
	mono       bool
}

func (h mp3Header) bitrateRow() int {
	if h.version == 0 {
		return h.layer - 1
	}
	if h.layer == 1 {
		return 3
	}
	return 4
}

func (h mp3Header) samplesPerFrame() int {
	switch h.layer {
	case 1:
		return 384
	case 2:
		return 1152
	}
	if h.version == 0 {
		return 1152
	}
	return 576
}

// parseMP3Header decodes a 4-byte frame header. ok is false when the
// bytes are not a valid header.
func parseMP3Header(b []byte) (mp3Header, bool) {
	var h mp3Header
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return h, false
	}
	switch b[1] >> 3 & 0x3 {
	case 0:
		h.version = 2
	case 2:
		h.version = 1
	case 3:
		h.version = 0
	default:
		return h, false
	}
	switch b[1] >> 1 & 0x3 {
	case 1:
		h.layer = 3
	case 2:
		h.layer = 2
	case 3:
		h.layer = 1
	default:
		return h, false
	}
	bitrateIdx := b[2] >> 4
	rateIdx := b[2] >> 2 & 0x3
	if bitrateIdx == 0xF || rateIdx == 3 {
		return h, false
	}
	h.bitrate = mp3Bitrates[h.bitrateRow()][bitrateIdx] * 1000
	h.sampleRate = mp3SampleRates[h.version][rateIdx]
	h.mono = b[3]>>6 == 3
	return h, true
}

// mp3Duration reads play length from a Xing or VBRI frame count when one
// is present, falling back to a constant-bitrate estimate over the
// payload.
func mp3Duration(r io.ReadSeeker, size int64) (time.Duration, error) {
	start, h, err := findMP3Frame(r)
	if err != nil {
		return 0, err
	}

	// The Xing block sits after the side info, whose width depends on
	// version and channel mode.
	xingOffset := int64(32)
	switch {
	case h.version == 0 && h.mono:
		xingOffset = 17
	case h.version != 0 && h.mono:
		xingOffset = 9
	case h.version != 0:
		xingOffset = 17
	}
	buf := make([]byte, 12)
	if _, err := r.Seek(start+4+xingOffset, io.SeekStart); err == nil {
		if _, err := io.ReadFull(r, buf); err == nil {
			name := string(buf[:4])
			if (name == "Xing" || name == "Info") && binary.BigEndian.Uint32(buf[4:8])&0x1 != 0 {
				frames := binary.BigEndian.Uint32(buf[8:12])
				secs := float64(frames) * float64(h.samplesPerFrame()) / float64(h.sampleRate)
				return secondsToDuration(secs), nil
			}
		}
	}

	// Fraunhofer VBRI sits 32 bytes after the header; the frame count is
	// at offset 14 inside it.
	if _, err := r.Seek(start+4+32, io.SeekStart); err == nil {
		vbri := make([]byte, 18)
		if _, err := io.ReadFull(r, vbri); err == nil && string(vbri[:4]) == "VBRI" {
			frames := binary.BigEndian.Uint32(vbri[14:18])
			secs := float64(frames) * float64(h.samplesPerFrame()) / float64(h.sampleRate)
			return secondsToDuration(secs), nil
		}
	}

	if h.bitrate == 0 {
		return 0, errors.New("mp3: free-format bitrate, cannot estimate length")
	}
	secs := float64((size-start)*8) / float64(h.bitrate)
	return secondsToDuration(secs), nil
}

// findMP3Frame scans forward for the first valid frame header. Junk
// before the audio payload is tolerated up to 64KiB.
func findMP3Frame(r io.ReadSeeker) (int64, mp3Header, error) {
	const window = 64 * 1024
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, mp3Header{}, err
	}
	buf := make([]byte, window)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, mp3Header{}, err
	}
	buf = buf[:n]
	for i := 0; i+4 <= len(buf); i++ {
		if buf[i] != 0xFF {
			continue
		}
		if h, ok := parseMP3Header(buf[i : i+4]); ok {
			return int64(i), h, nil
		}
	}
	return 0, mp3Header{}, errors.New("mp3: no frame sync found")
}
