// Package framesource reads YUV4MPEG2 frames from a producer process such as
// ffmpeg or vspipe, starting at an arbitrary frame of the clip.
package framesource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	streamMagic = "YUV4MPEG2"
	frameMagic  = "FRAME"
	// maxHeaderLen bounds header lines so a corrupt stream cannot grow memory.
	maxHeaderLen = 4096
)

// Header describes a Y4M stream.
type Header struct {
	Raw        []byte
	Width      int
	Height     int
	Colorspace string
	FrameRate  string
}

// FrameSize returns the payload size of one frame in bytes.
func (h Header) FrameSize() (int, error) {
	cs := h.Colorspace
	if cs == "" {
		cs = "420jpeg"
	}
	sample := 1
	base := cs
	for _, depth := range []string{"p16", "p14", "p12", "p10", "p9"} {
		if strings.HasSuffix(cs, depth) {
			sample = 2
			base = strings.TrimSuffix(cs, depth)
			break
		}
	}
	w, h2 := h.Width, h.Height
	luma := w * h2
	switch {
	case strings.HasPrefix(base, "420"):
		chroma := ((w + 1) / 2) * ((h2 + 1) / 2)
		return (luma + 2*chroma) * sample, nil
	case base == "422":
		chroma := ((w + 1) / 2) * h2
		return (luma + 2*chroma) * sample, nil
	case base == "444":
		return 3 * luma * sample, nil
	case base == "444alpha":
		return 4 * luma * sample, nil
	case base == "mono":
		return luma * sample, nil
	default:
		return 0, fmt.Errorf("y4m: unsupported colorspace %q", h.Colorspace)
	}
}

// Reader yields raw frames, each including its FRAME line, ready to be
// written to an encoder after the stream header.
type Reader struct {
	br        *bufio.Reader
	header    Header
	frameSize int
}

// NewReader parses the stream header from r.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	line, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("y4m: read stream header: %w", err)
	}
	header, err := parseHeader(line)
	if err != nil {
		return nil, err
	}
	size, err := header.FrameSize()
	if err != nil {
		return nil, err
	}
	return &Reader{br: br, header: header, frameSize: size}, nil
}

// Header returns the parsed stream header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next frame, or io.EOF at a clean end of stream. A frame
// cut short by the producer is reported as io.ErrUnexpectedEOF.
func (r *Reader) Next() ([]byte, error) {
	line, err := readLine(r.br)
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) == 0 {
			return nil, io.EOF
		}
		return nil, io.ErrUnexpectedEOF
	}
	if !bytes.HasPrefix(line, []byte(frameMagic)) {
		return nil, fmt.Errorf("y4m: expected FRAME marker, got %q", truncate(line))
	}
	frame := make([]byte, len(line)+r.frameSize)
	copy(frame, line)
	if _, err := io.ReadFull(r.br, frame[len(line):]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

// readLine returns a line including its trailing newline.
func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			return line, nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return line, err
		}
		if len(line) > maxHeaderLen {
			return line, fmt.Errorf("y4m: header line exceeds %d bytes", maxHeaderLen)
		}
	}
}

func parseHeader(line []byte) (Header, error) {
	text := strings.TrimRight(string(line), "\n")
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != streamMagic {
		return Header{}, fmt.Errorf("y4m: missing %s signature in %q", streamMagic, truncate(line))
	}
	h := Header{Raw: append([]byte(nil), line...)}
	for _, field := range fields[1:] {
		if len(field) < 2 {
			continue
		}
		value := field[1:]
		switch field[0] {
		case 'W':
			h.Width, _ = strconv.Atoi(value)
		case 'H':
			h.Height, _ = strconv.Atoi(value)
		case 'C':
			h.Colorspace = value
		case 'F':
			h.FrameRate = value
		}
	}
	if h.Width <= 0 || h.Height <= 0 {
		return Header{}, fmt.Errorf("y4m: invalid dimensions in %q", truncate(line))
	}
	return h, nil
}

func truncate(b []byte) string {
	if len(b) > 64 {
		b = b[:64]
	}
	return strings.TrimSpace(string(b))
}
