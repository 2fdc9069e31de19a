package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tuannm99/novabuf/pkg/lrukx"
)

var ErrBadTrace = errors.New("replay: malformed trace")

type OpKind uint8

const (
	OpGet   OpKind = iota + 1 // fetch + pin
	OpPut                     // unpin clean
	OpDirty                   // unpin dirty
	OpDrop                    // delete from pool
)

type Op struct {
	Kind   OpKind
	PageID uint32
	Access lrukx.AccessType
}

// ParseTrace reads one op per line:
//
//	get <page> [lookup|scan|index]
//	put <page>
//	dirty <page>
//	drop <page>
//
// Blank lines and lines starting with '#' are skipped.
func ParseTrace(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrBadTrace, line, text)
		}
		id, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: page id %q", ErrBadTrace, line, fields[1])
		}

		op := Op{PageID: uint32(id)}
		switch fields[0] {
		case "get":
			op.Kind = OpGet
			if len(fields) > 2 {
				op.Access = lrukx.ParseAccessType(fields[2])
			}
		case "put":
			op.Kind = OpPut
		case "dirty":
			op.Kind = OpDirty
		case "drop":
			op.Kind = OpDrop
		default:
			return nil, fmt.Errorf("%w: line %d: unknown op %q", ErrBadTrace, line, fields[0])
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}
