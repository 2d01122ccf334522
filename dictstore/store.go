// Package dictstore persists a custom dictionary as a flat text file with one
// entry per line.
//
// Every operation is a one-shot read-modify-write; nothing is cached between
// calls. Save truncates and rewrites the whole file unless the store was
// created WithAtomicWrite, so a failure mid-write can leave the file empty or
// partially written.
package dictstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/logc"
	"go.opentelemetry.io/otel/attribute"

	"gomod.pri/spellkit/xerror"
	"gomod.pri/spellkit/xtrace"
)

// LineTerminator ends every line returned by Load.
const LineTerminator = "\r\n"

const filePerm = 0o644

var errNoPath = errors.New("dictionary path is not configured")

type Option func(*Store)

// WithAtomicWrite makes Save write a temporary file next to the target and
// rename it into place.
func WithAtomicWrite() Option {
	return func(s *Store) {
		s.atomic = true
	}
}

type Store struct {
	atomic bool
}

func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the dictionary at path, terminating every line with
// LineTerminator. On failure it returns "" and an error matching
// xerror.ErrDictionaryUnavailable.
func (s *Store) Load(ctx context.Context, path string) (content string, err error) {
	ctx, span := xtrace.Start(ctx, "dictstore.Load", attribute.String("dictionary.path", path))
	defer func() { xtrace.End(span, err) }()

	if path == "" {
		return "", xerror.RaiseCtx(ctx, xerror.CodeDictionaryUnavailable, errNoPath)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", xerror.RaiseCtx(ctx, xerror.CodeDictionaryUnavailable, err, path)
	}
	defer release(ctx, f, path)

	content, err = readLines(f)
	if err != nil {
		return "", xerror.RaiseCtx(ctx, xerror.CodeDictionaryUnavailable, err, path)
	}

	span.SetAttributes(attribute.Int("dictionary.bytes", len(content)))
	return content, nil
}

// maxLineBytes bounds a single line; longer lines fail the load.
const maxLineBytes = 16 << 20

func readLines(r io.Reader) (string, error) {
	var sb strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	sc.Split(scanLines)

	for sc.Scan() {
		sb.Write(sc.Bytes())
		sb.WriteString(LineTerminator)
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// scanLines is bufio.ScanLines that also ends a line at a lone '\r'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// a '\r' at the end of the buffer may be followed by '\n'
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// AddWord appends word to the dictionary at path and rewrites the file.
//
// No separator is inserted: the loaded content ends with a line terminator
// only if it has lines, so word must carry its own terminator when it is
// meant to start a new line entry. A missing file is treated as empty; any
// other load failure is returned without touching the file.
func (s *Store) AddWord(ctx context.Context, word, path string) (err error) {
	ctx, span := xtrace.Start(ctx, "dictstore.AddWord", attribute.String("dictionary.path", path))
	defer func() { xtrace.End(span, err) }()

	content, err := s.Load(ctx, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		logc.Infof(ctx, "dictstore: %s does not exist, starting from empty content", path)
	}

	return s.Save(ctx, path, content+word)
}

// Save replaces the file at path with content. On failure it returns an error
// matching xerror.ErrDictionaryWrite.
func (s *Store) Save(ctx context.Context, path, content string) (err error) {
	ctx, span := xtrace.Start(ctx, "dictstore.Save",
		attribute.String("dictionary.path", path),
		attribute.Int("dictionary.bytes", len(content)),
		attribute.Bool("dictionary.atomic", s.atomic),
	)
	defer func() { xtrace.End(span, err) }()

	if path == "" {
		return xerror.RaiseCtx(ctx, xerror.CodeDictionaryWrite, errNoPath)
	}

	if s.atomic {
		err = saveAtomic(ctx, path, content)
	} else {
		err = saveTruncate(ctx, path, content)
	}
	if err != nil {
		return xerror.RaiseCtx(ctx, xerror.CodeDictionaryWrite, err, path)
	}
	return nil
}

func saveTruncate(ctx context.Context, path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	defer release(ctx, f, path)

	_, err = io.WriteString(f, content)
	return err
}

func saveAtomic(ctx context.Context, path, content string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logc.Errorf(ctx, "dictstore: remove temp file %s: %v", tmp.Name(), rmErr)
			}
		}
	}()

	if _, err = io.WriteString(tmp, content); err != nil {
		release(ctx, tmp, tmp.Name())
		return err
	}
	if err = tmp.Sync(); err != nil {
		release(ctx, tmp, tmp.Name())
		return err
	}
	// the rename must not happen over an unflushed file
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// release closes c. A close failure is reported, never returned.
func release(ctx context.Context, c io.Closer, path string) {
	if err := c.Close(); err != nil {
		xerror.RaiseCtx(ctx, xerror.CodeResourceRelease, err, path)
	}
}
