package imaging

import "fmt"

// DecodeError reports an input file that could not be opened or decoded as an
// image. It wraps the underlying cause.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode image %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WriteError reports an output image that could not be written, whether the
// directory, the file or the encoder failed.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write image %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
