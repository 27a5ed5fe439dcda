// ABOUTME: Minimal server-sent events decoder for backend streaming responses
// ABOUTME: Yields the joined data payload of each event, skipping comments

package provider

import (
	"bufio"
	"bytes"
	"io"
)

type sseDecoder struct {
	r *bufio.Reader
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the data payload of the next event. Multiple data lines in
// one event are joined with a newline. Returns io.EOF when the body ends.
func (d *sseDecoder) Next() ([]byte, error) {
	var lines [][]byte
	for {
		line, err := d.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if len(lines) > 0 {
				return bytes.Join(lines, []byte("\n")), nil
			}
			if err != nil {
				return nil, err
			}
			continue
		}

		if data, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			lines = append(lines, bytes.TrimPrefix(data, []byte(" ")))
		}

		if err != nil {
			if len(lines) > 0 {
				return bytes.Join(lines, []byte("\n")), nil
			}
			return nil, err
		}
	}
}
