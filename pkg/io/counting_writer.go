package io

import "io"

// CountingWriter tracks how many bytes have gone through to Delegate, for use in [io.WriterTo] implementations.
type CountingWriter struct {
	Delegate     io.Writer
	BytesWritten int64
	Err          error
}

func (w *CountingWriter) Write(p []byte) (int, error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err := w.Delegate.Write(p)
	w.BytesWritten += int64(n)
	w.Err = err
	return n, err
}

// WriteString writes s, ignoring the call if a previous write failed.
func (w *CountingWriter) WriteString(s string) {
	_, _ = w.Write([]byte(s))
}
