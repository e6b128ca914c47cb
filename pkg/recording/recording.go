package recording

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

// Magic opens every recording file.
var Magic = []byte("CELLREC1")

// entryHeaderSize is u64 unix nanos + u8 role + u32 payload length.
const entryHeaderSize = 13

// MaxPayload bounds a single recorded message.
const MaxPayload = 1 << 24

var (
	// ErrBadMagic is returned for files that are not recordings.
	ErrBadMagic = errors.New("recording: bad magic")

	// ErrBadRole is returned for an entry with an unknown session role.
	ErrBadRole = errors.New("recording: unknown session role")

	// ErrTooLarge is returned for an entry over MaxPayload.
	ErrTooLarge = errors.New("recording: payload too large")

	// ErrClosed is returned when recording into a closed Recorder.
	ErrClosed = errors.New("recording: closed")
)

// Entry is one recorded inbound message.
type Entry struct {
	At      time.Time
	Role    world.Role
	Payload []byte
}

// Recorder appends inbound messages to a recording. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	bw     *bufio.Writer
	closer io.Closer
	path   string
	head   *protocol.Writer
	frames int
	bytes  int64
	closed bool
}

// NewRecorder writes the file header to w and returns a recorder on it.
// If w is an io.Closer, Close closes it.
func NewRecorder(w io.Writer) (*Recorder, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(Magic); err != nil {
		return nil, err
	}
	r := &Recorder{
		bw:   bw,
		head: protocol.NewWriterWithCap(protocol.Order, entryHeaderSize),
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r, nil
}

// FileName is the recording file name for a session started at t.
func FileName(t time.Time) string {
	return "cellclient-" + t.UTC().Format("20060102-150405") + ".rec"
}

// Create opens a new recording file in dir.
func Create(dir string, now time.Time) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recording: create dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("recording: %w", err)
	}
	r, err := NewRecorder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.path = path
	return r, nil
}

// Record appends msg received by the session named role at at.
func (r *Recorder) Record(role string, at time.Time, msg []byte) error {
	ro, ok := world.ParseRole(role)
	if !ok {
		return fmt.Errorf("%w: %q", ErrBadRole, role)
	}
	if len(msg) > MaxPayload {
		return ErrTooLarge
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	r.head.Reset()
	r.head.WriteUint64(uint64(at.UnixNano()))
	r.head.WriteUint8(uint8(ro))
	r.head.WriteUint32(uint32(len(msg)))
	if _, err := r.bw.Write(r.head.Bytes()); err != nil {
		return err
	}
	if _, err := r.bw.Write(msg); err != nil {
		return err
	}
	r.frames++
	r.bytes += int64(len(msg))
	return nil
}

// Flush writes buffered entries to the underlying writer.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bw.Flush()
}

// Close flushes and closes the recording. It is idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.bw.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Path is the file path for recorders made by Create.
func (r *Recorder) Path() string { return r.path }

// Frames returns the number of recorded messages.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Bytes returns the recorded payload bytes.
func (r *Recorder) Bytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytes
}

// Reader reads entries back from a recording.
type Reader struct {
	br   *bufio.Reader
	head [entryHeaderSize]byte
}

// NewReader checks the file header and returns a reader for the entries.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	if !bytes.Equal(magic, Magic) {
		return nil, ErrBadMagic
	}
	return &Reader{br: br}, nil
}

// Next returns the next entry. It returns io.EOF after the last complete
// entry and io.ErrUnexpectedEOF for a truncated one.
func (r *Reader) Next() (Entry, error) {
	if _, err := io.ReadFull(r.br, r.head[:]); err != nil {
		return Entry{}, err
	}
	hr := protocol.NewReader(r.head[:], 0, protocol.Order)
	ns, _ := hr.ReadUint64()
	role, _ := hr.ReadUint8()
	n, _ := hr.ReadUint32()

	if int(role) >= len(world.Roles) {
		return Entry{}, fmt.Errorf("%w: %d", ErrBadRole, role)
	}
	if n > MaxPayload {
		return Entry{}, ErrTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.br, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Entry{}, err
	}
	return Entry{
		At:      time.Unix(0, int64(ns)),
		Role:    world.Role(role),
		Payload: payload,
	}, nil
}
