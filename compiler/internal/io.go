package internal

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// NewSourceReader decodes source from the named IANA charset into UTF-8 runes. An empty name and
// UTF-8 leave source untouched.
func NewSourceReader(source io.Reader, encoding string) (*bufio.Reader, error) {
	if encoding == "" || strings.EqualFold(encoding, "utf-8") || strings.EqualFold(encoding, "utf8") {
		return bufio.NewReader(source), nil
	}
	enc, err := ianaindex.IANA.Encoding(encoding)
	if err != nil {
		return nil, makeConfigurationErr("SourceEncoding", "unknown source encoding %q", encoding)
	}
	if enc == nil {
		return nil, makeConfigurationErr("SourceEncoding", "unsupported source encoding %q", encoding)
	}
	return bufio.NewReader(transform.NewReader(source, enc.NewDecoder())), nil
}

// WriteTo writes data through a buffer, flushes it and closes sink if it is an io.Closer.
func WriteTo(sink io.Writer, data []byte) (err error) {
	if closer, ok := sink.(io.Closer); ok {
		defer func() {
			if closeErr := closer.Close(); err == nil {
				err = closeErr
			}
		}()
	}
	writer := bufio.NewWriter(sink)
	if _, err = writer.Write(data); err != nil {
		return err
	}
	return writer.Flush()
}
