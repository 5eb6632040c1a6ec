package picker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File describes a file chosen by the user. Only MediaType takes part in
// validation; the rest is forwarded to the transport as-is.
type File struct {
	Name      string
	MediaType string
	Size      int64
	Path      string

	open func() (io.ReadCloser, error)
}

// Open returns a fresh reader over the file's bytes.
func (f *File) Open() (io.ReadCloser, error) {
	if f == nil || f.open == nil {
		return nil, fmt.Errorf("file has no content")
	}
	return f.open()
}

// FromPath builds a File from a local path. The declared media type is
// derived from the extension the same way a browser file input does.
func FromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mediaType, err := detectFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect media type of %s: %w", path, err)
	}

	return &File{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Size:      info.Size(),
		Path:      path,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromBytes builds an in-memory File.
func FromBytes(name, mediaType string, data []byte) *File {
	return &File{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// WithMediaType returns a copy of f declaring a different media type.
func WithMediaType(f *File, mediaType string) *File {
	if f == nil {
		return nil
	}
	cp := *f
	cp.MediaType = mediaType
	return &cp
}

func detectFromPath(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return DetectMediaType(path, file)
}
