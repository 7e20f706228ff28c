package table

import (
	"bufio"
	"errors"
	"io"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ============================================================================
// SPILL FILES - VARINT-DELIMITED PROTOBUF ROW FRAMING
// ============================================================================

// Spill records are self-describing: a varint length prefix followed by one
// protobuf-encoded structpb.Struct per row. Struct value semantics match the
// JSON-lines sources (numbers come back as float64), and the binary framing
// is robust against values containing newlines.

// writeSpill serialises one sorted run to path
func writeSpill(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return &SpillError{Path: path, Err: err}
	}
	w := bufio.NewWriter(file)
	for _, row := range rows {
		msg, err := structpb.NewStruct(map[string]any(row))
		if err != nil {
			file.Close()
			return &SpillError{Path: path, Err: err}
		}
		data, err := proto.Marshal(msg)
		if err != nil {
			file.Close()
			return &SpillError{Path: path, Err: err}
		}
		if err := writeVarint(w, uint64(len(data))); err != nil {
			file.Close()
			return &SpillError{Path: path, Err: err}
		}
		if _, err := w.Write(data); err != nil {
			file.Close()
			return &SpillError{Path: path, Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return &SpillError{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &SpillError{Path: path, Err: err}
	}
	return nil
}

// spillReader streams rows back out of one spill file. The file is removed
// as soon as it is fully drained.
type spillReader struct {
	path   string
	file   *os.File
	r      *bufio.Reader
	closed bool
}

func openSpill(path string) (*spillReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &SpillError{Path: path, Err: err}
	}
	return &spillReader{path: path, file: file, r: bufio.NewReader(file)}, nil
}

// next reads one framed row; EOS at end of file
func (s *spillReader) next() (Row, error) {
	if s.closed {
		return nil, EOS
	}
	length, err := readVarint(s.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.discard()
			return nil, EOS
		}
		s.discard()
		return nil, &SpillError{Path: s.path, Err: err}
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(s.r, data); err != nil {
		s.discard()
		return nil, &SpillError{Path: s.path, Err: err}
	}
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		s.discard()
		return nil, &SpillError{Path: s.path, Err: err}
	}
	return Row(msg.AsMap()), nil
}

// discard closes and deletes the spill file
func (s *spillReader) discard() {
	if s.closed {
		return
	}
	s.closed = true
	s.file.Close()
	os.Remove(s.path)
}

func readVarint(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			if shift != 0 && errors.Is(err, io.EOF) {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint too long")
		}
	}
}

func writeVarint(w io.ByteWriter, value uint64) error {
	for value >= 0x80 {
		if err := w.WriteByte(byte(value) | 0x80); err != nil {
			return err
		}
		value >>= 7
	}
	return w.WriteByte(byte(value))
}
