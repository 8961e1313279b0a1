package sqlite

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	sqlite "modernc.org/sqlite"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

// encodeEmbedding stores a vector as little-endian IEEE 754 float32 values
// without a length prefix. A nil vector is stored as NULL.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: embedding blob length %d is not a multiple of 4", storage.ErrSerializationFailed, len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// List columns hold JSON arrays. Empty lists decode to nil.
func encodeList[T any](values []T) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return string(b), nil
}

// deckLists encodes the themes, audiences and use cases columns.
func deckLists(deck *core.Deck) (themes, audiences, useCases string, err error) {
	if themes, err = encodeList(deck.Themes); err != nil {
		return
	}
	if audiences, err = encodeList(deck.Audiences); err != nil {
		return
	}
	useCases, err = encodeList(deck.UseCases)
	return
}

// topicLists encodes the keywords, reuse suggestions and slide numbers columns.
func topicLists(topic *core.Topic) (keywords, suggestions, numbers string, err error) {
	if keywords, err = encodeList(topic.Keywords); err != nil {
		return
	}
	if suggestions, err = encodeList(topic.ReuseSuggestions); err != nil {
		return
	}
	numbers, err = encodeList(topic.SlideNumbers)
	return
}

func decodeList[T any](s string) ([]T, error) {
	var out []T
	if s == "" || s == "[]" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func encodeTime(t time.Time) int64 {
	return t.UnixMicro()
}

func decodeTime(micro int64) time.Time {
	return time.UnixMicro(micro).UTC()
}

// now truncates to the microsecond precision timestamps are stored with.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// registerFunctions installs vec_cosine(a, b). Registration is global to the
// driver and applies to connections opened afterwards.
func registerFunctions() error {
	return sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosine)
}

func vecCosine(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_cosine: expected 2 arguments, got %d", len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return float64(storage.CosineSimilarity(a, b)), nil
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeEmbedding(v)
	default:
		return nil, fmt.Errorf("vec_cosine: unsupported argument type %T, want BLOB", arg)
	}
}
