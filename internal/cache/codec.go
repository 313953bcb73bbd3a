package cache

import (
	"slices"

	"github.com/fxamacker/cbor/v2"
)

// Codec converts cached values to and from their stored bytes.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// encMode uses Core Deterministic Encoding, so equal values always produce
// identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR encodes values with CBOR.
type CBOR[V any] struct{}

func (CBOR[V]) Marshal(v V) ([]byte, error) {
	return encMode.Marshal(v)
}

func (CBOR[V]) Unmarshal(data []byte) (V, error) {
	var v V
	err := decMode.Unmarshal(data, &v)
	return v, err
}

// Raw stores byte slices as they are.
type Raw struct{}

func (Raw) Marshal(v []byte) ([]byte, error) { return v, nil }

func (Raw) Unmarshal(data []byte) ([]byte, error) { return slices.Clone(data), nil }
