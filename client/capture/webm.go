package capture

import (
	"bytes"
)

// Framer turns the bytes buffered since the last slice into a slice that
// decodes on its own. Cut returns the slice to submit and the bytes to keep
// for the next one. Reset is called whenever a new stream is opened.
type Framer interface {
	Cut(buf []byte) (slice, rest []byte)
	Reset()
}

// rawFramer submits everything buffered.
type rawFramer struct{}

func (rawFramer) Cut(buf []byte) ([]byte, []byte) { return buf, nil }
func (rawFramer) Reset()                          {}

const (
	idEBML    = 0x1A45DFA3
	idSegment = 0x18538067
	idCluster = 0x1F43B675
)

var (
	ebmlMagic   = []byte{0x1A, 0x45, 0xDF, 0xA3}
	clusterMark = []byte{0x1F, 0x43, 0xB6, 0x75}
)

// WebMFramer slices a continuous WebM stream. Only the start of such a
// stream carries the EBML header and track setup, so the framer keeps that
// init segment and prepends it to every slice. Slices end on a cluster
// boundary; a partially received cluster waits for the next slice.
//
// A stream that resumes without a header, such as stdin after a restart,
// reuses the previous header from its next cluster on. Any other stream that
// does not start with an EBML header is passed through as is.
type WebMFramer struct {
	head []byte
	prev []byte
	raw  bool
}

func NewWebMFramer() *WebMFramer {
	return &WebMFramer{}
}

func (f *WebMFramer) Reset() {
	if f.head != nil {
		f.prev = f.head
	}
	f.head = nil
	f.raw = false
}

func (f *WebMFramer) Cut(buf []byte) ([]byte, []byte) {
	if f.raw {
		return buf, nil
	}

	body := buf
	if f.head == nil {
		if len(buf) < len(ebmlMagic) {
			return nil, buf
		}
		switch {
		case bytes.HasPrefix(buf, ebmlMagic):
			n, ok := initSegmentLen(buf)
			if !ok {
				return nil, buf
			}
			f.head = append([]byte(nil), buf[:n]...)
			body = buf[n:]
		case f.prev != nil:
			i := bytes.Index(buf, clusterMark)
			if i < 0 {
				// keep a tail that may hold the start of a cluster ID
				return nil, buf[len(buf)-len(clusterMark)+1:]
			}
			f.head = f.prev
			body = buf[i:]
		default:
			f.raw = true
			return buf, nil
		}
	}

	end := completeClusters(body)
	if end == 0 {
		return nil, body
	}
	slice := make([]byte, 0, len(f.head)+end)
	slice = append(slice, f.head...)
	slice = append(slice, body[:end]...)
	return slice, body[end:]
}

// initSegmentLen returns the offset of the first Cluster, which is where the
// init segment ends. ok is false until enough of the stream has arrived.
func initSegmentLen(buf []byte) (int, bool) {
	id, size, hdr, ok := readElement(buf)
	if !ok || id != idEBML || size < 0 {
		return 0, false
	}
	pos := hdr + int(size)

	id, _, hdr, ok = readElement(buf[min(pos, len(buf)):])
	if !ok || id != idSegment {
		return 0, false
	}
	pos += hdr

	for pos < len(buf) {
		id, size, hdr, ok := readElement(buf[pos:])
		if !ok {
			return 0, false
		}
		if id == idCluster {
			return pos, true
		}
		if size < 0 {
			return 0, false
		}
		pos += hdr + int(size)
	}
	return 0, false
}

// completeClusters returns the length of the prefix of body made of complete
// top-level elements. A cluster of unknown size is complete once the next
// cluster starts.
func completeClusters(body []byte) int {
	pos := 0
	for pos < len(body) {
		_, size, hdr, ok := readElement(body[pos:])
		if !ok {
			break
		}
		if size < 0 {
			next := bytes.Index(body[pos+hdr:], clusterMark)
			if next < 0 {
				break
			}
			pos += hdr + next
			continue
		}
		end := pos + hdr + int(size)
		if end > len(body) {
			break
		}
		pos = end
	}
	return pos
}

// readElement decodes an EBML element ID and data size. size is -1 for the
// reserved unknown-size value. hdr is the number of bytes both occupy.
func readElement(b []byte) (id uint32, size int64, hdr int, ok bool) {
	idLen := vintLen(b)
	if idLen == 0 || idLen > 4 || len(b) < idLen {
		return 0, 0, 0, false
	}
	for _, c := range b[:idLen] {
		id = id<<8 | uint32(c)
	}

	rest := b[idLen:]
	sizeLen := vintLen(rest)
	if sizeLen == 0 || len(rest) < sizeLen {
		return 0, 0, 0, false
	}
	v := uint64(rest[0]) & (0xFF >> sizeLen)
	allOnes := v == uint64(0xFF>>sizeLen)
	for _, c := range rest[1:sizeLen] {
		v = v<<8 | uint64(c)
		allOnes = allOnes && c == 0xFF
	}
	if allOnes {
		return id, -1, idLen + sizeLen, true
	}
	if v > 1<<40 {
		return 0, 0, 0, false
	}
	return id, int64(v), idLen + sizeLen, true
}

// vintLen is the width of the variable-length integer starting at b[0], or 0
// when b is empty or the leading byte is invalid.
func vintLen(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	for i := 0; i < 8; i++ {
		if b[0]&(0x80>>i) != 0 {
			return i + 1
		}
	}
	return 0
}
