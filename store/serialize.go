package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

var errNilValue = errors.New("cannot encode nil value")

// encode writes value with gob. Checkpoints and the file version use it.
func encode[T any](value *T) ([]byte, error) {
	if value == nil {
		return nil, errNilValue
	}
	buffer := &bytes.Buffer{}
	if err := gob.NewEncoder(buffer).Encode(value); err != nil {
		return nil, fmt.Errorf("cannot encode %T: %w", value, err)
	}
	return buffer.Bytes(), nil
}

func decode[T any](data []byte) (*T, error) {
	value := new(T)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(value); err != nil {
		return nil, fmt.Errorf("cannot decode %T: %w", value, err)
	}
	return value, nil
}

func encodeVersion(version int) ([]byte, error) {
	return encode(&version)
}

func decodeVersion(data []byte) (int, error) {
	version, err := decode[int](data)
	if err != nil {
		return 0, err
	}
	return *version, nil
}
