package kimi

import (
	"bufio"
	"bytes"
	"io"

	"github.com/muran-prog/kimi-go/core"
)

// sseDecoder incrementally assembles logical units from a streaming response
// body. A logical unit is the concatenated payload of one server-sent event:
// consecutive `data:` lines terminated by a blank line. The decoder buffers
// until a unit is complete, so the emitted sequence is identical regardless
// of how the bytes were fragmented across network chunks.
type sseDecoder struct {
	r *bufio.Reader
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the payload of the next complete logical unit.
//
// io.EOF signals a clean end of stream. End of stream with a partially
// assembled unit in the buffer is a truncated stream and is reported as
// core.ErrTruncated, never a silent success.
func (d *sseDecoder) next() ([]byte, error) {
	var dataLines [][]byte
	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(bytes.TrimSpace(line)) > 0 || len(dataLines) > 0 {
					return nil, core.ErrTruncated
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line: unit boundary.
		if len(line) == 0 {
			if len(dataLines) == 0 {
				continue
			}
			return bytes.Join(dataLines, []byte("\n")), nil
		}

		// Comment line.
		if line[0] == ':' {
			continue
		}

		if val, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			if len(val) > 0 && val[0] == ' ' {
				val = val[1:]
			}
			dataLines = append(dataLines, append([]byte(nil), val...))
		}
		// Other SSE fields (event:, id:, retry:) are not used by this API.
	}
}
