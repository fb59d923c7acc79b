package points

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unsafe"
)

const MB = 1048576

// https://github.com/golang/go/issues/2632#issuecomment-66061057
func unsafeString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

func HasDoubleDot(p []byte) bool {
	for i := 1; i < len(p); i += 2 {
		if p[i] == '.' {
			if p[i-1] == '.' {
				return true
			}
			if i+1 < len(p) && p[i+1] == '.' {
				return true
			}
		}
	}
	return false
}

func RemoveDoubleDot(p []byte) []byte {
	if !HasDoubleDot(p) {
		return p
	}

	shift := 0
	for i := 1; i < len(p); i++ {
		if p[i] == '.' && p[i-1-shift] == '.' {
			shift++
		} else if shift > 0 {
			p[i-shift] = p[i]
		}
	}

	return p[:len(p)-shift]
}

// PlainParseLine parses "name value timestamp[\r]\n".
func PlainParseLine(p []byte) ([]byte, float64, int64, error) {
	i1 := bytes.IndexByte(p, ' ')
	if i1 < 1 {
		return nil, 0, 0, fmt.Errorf("bad message: %#v", string(p))
	}

	i2 := bytes.IndexByte(p[i1+1:], ' ')
	if i2 < 1 {
		return nil, 0, 0, fmt.Errorf("bad message: %#v", string(p))
	}
	i2 += i1 + 1

	i3 := len(p)
	if p[i3-1] == '\n' {
		i3--
	}
	if i3 > 0 && p[i3-1] == '\r' {
		i3--
	}
	if i3 <= i2+1 {
		return nil, 0, 0, fmt.Errorf("bad message: %#v", string(p))
	}

	value, err := strconv.ParseFloat(unsafeString(p[i1+1:i2]), 64)
	if err != nil || math.IsNaN(value) {
		return nil, 0, 0, fmt.Errorf("bad message: %#v", string(p))
	}

	tsf, err := strconv.ParseFloat(unsafeString(p[i2+1:i3]), 64)
	if err != nil || math.IsNaN(tsf) {
		return nil, 0, 0, fmt.Errorf("bad message: %#v", string(p))
	}

	return RemoveDoubleDot(p[:i1]), value, int64(tsf), nil
}

// ParsePlain parses a body of newline terminated plain lines.
func ParsePlain(body []byte) ([]*Points, error) {
	size := len(body)
	offset := 0

	result := make([]*Points, 0, 4)

MainLoop:
	for offset < size {
		lineEnd := bytes.IndexByte(body[offset:size], '\n')
		if lineEnd < 0 {
			return result, errors.New("unfinished line")
		} else if lineEnd == 0 {
			// skip empty line
			offset++
			continue MainLoop
		}

		name, value, timestamp, err := PlainParseLine(body[offset : offset+lineEnd+1])
		offset += lineEnd + 1

		if err != nil {
			return result, err
		}

		result = append(result, OnePoint(string(name), value, timestamp))
	}

	return result, nil
}

// ReadPlain reads plain lines from r until EOF. Every parsed line goes to
// callback, every bad line to onError. A final line without newline is
// accepted.
func ReadPlain(r io.Reader, callback func(*Points), onError func(error)) error {
	reader := bufio.NewReaderSize(r, MB)

	for {
		line, err := reader.ReadBytes('\n')

		if err != nil && err != io.EOF {
			return err
		}

		if len(bytes.TrimSpace(line)) > 0 {
			name, value, timestamp, perr := PlainParseLine(line)
			if perr != nil {
				if onError != nil {
					onError(perr)
				}
			} else {
				callback(OnePoint(string(name), value, timestamp))
			}
		}

		if err == io.EOF {
			return nil
		}
	}
}
