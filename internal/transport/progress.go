package transport

import "io"

// ProgressFunc receives the number of body bytes written so far and the
// total body size.
type ProgressFunc func(sent, total int64)

type progressReader struct {
	reader   io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func newProgressReader(reader io.Reader, total int64, progress ProgressFunc) io.Reader {
	if progress == nil {
		return reader
	}
	return &progressReader{reader: reader, total: total, progress: progress}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.sent += int64(n)
		r.progress(r.sent, r.total)
	}
	return n, err
}
