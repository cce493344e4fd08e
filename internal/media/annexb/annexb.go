package annexb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/hevc"
)

// Codec identifies the elementary stream syntax.
type Codec int

const (
	CodecAVC Codec = iota + 1
	CodecHEVC
)

func (c Codec) String() string {
	switch c {
	case CodecAVC:
		return "h264"
	case CodecHEVC:
		return "hevc"
	default:
		return "unknown"
	}
}

// ErrUnsupported is returned for paths whose extension names no Annex-B codec.
var ErrUnsupported = errors.New("annexb: unsupported stream type")

// Result summarizes a scanned stream.
type Result struct {
	Frames    int
	Keyframes []int
}

// LastKeyframe returns the index of the final keyframe, or -1 when none was seen.
func (r Result) LastKeyframe() int {
	if len(r.Keyframes) == 0 {
		return -1
	}
	return r.Keyframes[len(r.Keyframes)-1]
}

// CodecForPath infers the codec from a file extension.
func CodecForPath(path string) (Codec, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "264", "h264", "avc":
		return CodecAVC, true
	case "265", "h265", "hevc":
		return CodecHEVC, true
	default:
		return 0, false
	}
}

// Supported reports whether path can be scanned natively.
func Supported(path string) bool {
	_, ok := CodecForPath(path)
	return ok
}

// Keyframes scans the file at path.
func Keyframes(path string) (Result, error) {
	codec, ok := CodecForPath(path)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return Scan(f, codec)
}

// Scan reads an Annex-B byte stream and reports every picture and keyframe.
//
// Keyframes are clean random access points only, so each index is the
// picture's position in display order as well as decode order. For H.264 that
// is every IDR. For HEVC it is an IRAP picture (IDR, CRA or BLA) that no
// RADL or RASL pictures follow: leading pictures display before their IRAP but
// decode after it, so cutting there would separate them from the frames they
// belong with. Open-GOP CRAs are therefore skipped.
func Scan(r io.Reader, codec Codec) (Result, error) {
	if codec != CodecAVC && codec != CodecHEVC {
		return Result{}, ErrUnsupported
	}
	br := bufio.NewReaderSize(r, 1<<20)
	s := scanner{codec: codec, pending: -1}
	zeros := 0
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return s.finish(), nil
		}
		if err != nil {
			return s.finish(), err
		}
		if b == 0 {
			zeros++
			continue
		}
		if b == 1 && zeros >= 2 {
			header, _ := br.Peek(3)
			s.observe(header)
		}
		zeros = 0
	}
}

type scanner struct {
	codec  Codec
	result Result
	// pending is the index of an HEVC IRAP picture not yet known to be free
	// of leading pictures, or -1.
	pending int
}

func (s *scanner) finish() Result {
	s.settle(true)
	return s.result
}

// settle resolves the pending IRAP once the picture after it is known.
func (s *scanner) settle(clean bool) {
	if s.pending >= 0 && clean {
		s.result.Keyframes = append(s.result.Keyframes, s.pending)
	}
	s.pending = -1
}

// observe records the NAL unit whose first bytes are header.
func (s *scanner) observe(header []byte) {
	switch s.codec {
	case CodecAVC:
		if len(header) < 2 {
			return
		}
		naluType := avc.GetNaluType(header[0])
		if naluType != avc.NALU_IDR && naluType != avc.NALU_NON_IDR {
			return
		}
		// first_mb_in_slice == 0 is coded as a single set bit.
		if header[1]&0x80 == 0 {
			return
		}
		if naluType == avc.NALU_IDR {
			s.result.Keyframes = append(s.result.Keyframes, s.result.Frames)
		}
		s.result.Frames++
	case CodecHEVC:
		if len(header) < 3 {
			return
		}
		naluType := hevc.GetNaluType(header[0])
		if naluType >= 32 {
			return
		}
		// first_slice_segment_in_pic_flag
		if header[2]&0x80 == 0 {
			return
		}
		switch {
		case naluType >= hevc.NALU_RADL_N && naluType <= hevc.NALU_RASL_R:
			s.settle(false)
		case naluType >= hevc.NALU_BLA_W_LP && naluType <= hevc.NALU_CRA:
			s.settle(true)
			s.pending = s.result.Frames
		default:
			s.settle(true)
		}
		s.result.Frames++
	}
}
