package inbox

import (
	"encoding/hex"
	"os"

	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// ReadFile loads an inputs file into an in-memory source.
func ReadFile(filename string) (*Slice, error) {
	payload, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "could not read inbox file")
	}

	messages, err := ParseInputs(payload)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}

	return NewSlice(messages...), nil
}

// ParseInputs parses the inputs format of the rollup debugger:
//
//	[
//	  [{"external": "0000..."}, {"internal": "01"}],
//	  [{"raw": "ff00"}]
//	]
//
// Each inner array is a level. A flat array of objects is read as a single level.
// "external" payloads are delivered as user messages (0x01 tag prepended),
// "internal" ones as kernel messages (0x00 tag prepended) and "raw" ones as is.
func ParseInputs(payload []byte) ([][]byte, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(payload)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse inputs")
	}

	levels, err := v.Array()
	if err != nil {
		return nil, errors.Wrap(err, "inputs must be an array")
	}

	var messages [][]byte
	for i, level := range levels {
		inputs := []*fastjson.Value{level}
		if level.Type() == fastjson.TypeArray {
			inputs = level.GetArray()
		}

		for j, input := range inputs {
			message, err := parseInput(input)
			if err != nil {
				return nil, errors.Wrapf(err, "input %d of level %d", j, i)
			}
			messages = append(messages, message)
		}
	}

	return messages, nil
}

func parseInput(v *fastjson.Value) ([]byte, error) {
	o, err := v.Object()
	if err != nil {
		return nil, errors.Wrap(err, "input must be an object")
	}

	for _, kind := range []struct {
		key    string
		prefix []byte
	}{
		{key: "external", prefix: []byte{libtodo.TagUser}},
		{key: "internal", prefix: []byte{libtodo.TagKernel}},
		{key: "raw"},
	} {
		field := o.Get(kind.key)
		if field == nil {
			continue
		}

		s, err := field.StringBytes()
		if err != nil {
			return nil, errors.Wrapf(err, "%s must be a string", kind.key)
		}

		message, err := hex.DecodeString(string(s))
		if err != nil {
			return nil, errors.Wrapf(err, "%s must be hex encoded", kind.key)
		}
		return append(kind.prefix, message...), nil
	}

	return nil, errors.New(`input must have one of "external", "internal" or "raw"`)
}
