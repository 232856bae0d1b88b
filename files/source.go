package files

import (
	"fmt"
	"os"

	"github.com/ruffel/hostkit/fileutil"
)

// Source is the local side of a transfer: a file on disk or an in-memory buffer.
type Source struct {
	path string
	data []byte
}

// Path returns a Source reading the local file at p.
func Path(p string) Source {
	return Source{path: p}
}

// Bytes returns a Source holding b.
func Bytes(b []byte) Source {
	return Source{data: b}
}

// String returns a Source holding s.
func String(s string) Source {
	return Source{data: []byte(s)}
}

// Read returns the source content.
func (src Source) Read() ([]byte, error) {
	if src.path != "" {
		return fileutil.ReadLocal(src.path)
	}

	return src.data, nil
}

// String describes the source for log output.
func (src Source) String() string {
	if src.path != "" {
		return src.path
	}

	return fmt.Sprintf("<%d bytes>", len(src.data))
}

// stagedMode is the mode in-memory content is uploaded with when no mode is
// given, matching a file created under the usual 022 umask.
const stagedMode = 0o644

// stage returns a local path holding the source content. In-memory sources
// are written to a temporary file removed by the returned func.
func (src Source) stage() (string, func(), error) {
	if src.path != "" {
		return src.path, func() {}, nil
	}

	f, err := os.CreateTemp("", "hostkit-put-*")
	if err != nil {
		return "", nil, fmt.Errorf("create staging file: %w", err)
	}

	cleanup := func() { _ = os.Remove(f.Name()) }

	if err := f.Chmod(stagedMode); err != nil {
		_ = f.Close()

		cleanup()

		return "", nil, fmt.Errorf("chmod staging file: %w", err)
	}

	if _, err := f.Write(src.data); err != nil {
		_ = f.Close()

		cleanup()

		return "", nil, fmt.Errorf("write staging file: %w", err)
	}

	if err := f.Close(); err != nil {
		cleanup()

		return "", nil, fmt.Errorf("close staging file: %w", err)
	}

	return f.Name(), cleanup, nil
}
