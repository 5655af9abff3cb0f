package cell

import "git.home.luguber.info/inful/companion/internal/foundation"

// Codec converts values to and from their stored string form. Decode is the
// validation step: a record it rejects is treated as absent.
type Codec[T any] interface {
	Encode(value T) (string, error)
	Decode(raw string) foundation.Result[T, error]
}

// CodecFuncs adapts a pair of functions to Codec.
type CodecFuncs[T any] struct {
	EncodeFunc func(T) (string, error)
	DecodeFunc func(string) foundation.Result[T, error]
}

func (c CodecFuncs[T]) Encode(value T) (string, error) { return c.EncodeFunc(value) }

func (c CodecFuncs[T]) Decode(raw string) foundation.Result[T, error] { return c.DecodeFunc(raw) }
