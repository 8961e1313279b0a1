// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/poiesic/deckdex/core"
)

// codec is the method set of the MUS serializers in core.
type codec[T any] interface {
	Marshal(v T, bs []byte) int
	Unmarshal(bs []byte) (T, int, error)
	Size(v T) int
}

func encode[T any](c codec[T], v T) []byte {
	buf := make([]byte, c.Size(v))
	c.Marshal(v, buf)
	return buf
}

func decode[T any](c codec[T], data []byte) (*T, error) {
	v, _, err := c.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &v, nil
}

// MarshalID encodes an ID as a varint, the value stored under an
// external-id index key. The record codecs come from core and are generated
// by cmd/musgen.
func MarshalID(id core.ID) []byte {
	return encode[core.ID](core.IDMUS, id)
}

func UnmarshalID(data []byte) (core.ID, error) {
	id, err := decode[core.ID](core.IDMUS, data)
	if err != nil {
		return 0, err
	}
	return *id, nil
}

func MarshalDeck(deck *core.Deck) []byte {
	return encode[core.Deck](core.DeckMUS, *deck)
}

func UnmarshalDeck(data []byte) (*core.Deck, error) {
	deck, err := decode[core.Deck](core.DeckMUS, data)
	if err != nil {
		return nil, err
	}
	deck.Themes = orNil(deck.Themes)
	deck.Audiences = orNil(deck.Audiences)
	deck.UseCases = orNil(deck.UseCases)
	deck.CreatedAt, deck.UpdatedAt = utc(deck.CreatedAt), utc(deck.UpdatedAt)
	return deck, nil
}

// MarshalTopic encodes a topic including its embedding, if any.
func MarshalTopic(topic *core.Topic) []byte {
	return encode[core.Topic](core.TopicMUS, *topic)
}

func UnmarshalTopic(data []byte) (*core.Topic, error) {
	topic, err := decode[core.Topic](core.TopicMUS, data)
	if err != nil {
		return nil, err
	}
	topic.Keywords = orNil(topic.Keywords)
	topic.ReuseSuggestions = orNil(topic.ReuseSuggestions)
	topic.SlideNumbers = orNil(topic.SlideNumbers)
	topic.Embedding = orNil(topic.Embedding)
	topic.CreatedAt, topic.UpdatedAt = utc(topic.CreatedAt), utc(topic.UpdatedAt)
	return topic, nil
}

func MarshalSlide(slide *core.Slide) []byte {
	return encode[core.Slide](core.SlideMUS, *slide)
}

func UnmarshalSlide(data []byte) (*core.Slide, error) {
	slide, err := decode[core.Slide](core.SlideMUS, data)
	if err != nil {
		return nil, err
	}
	slide.Keywords = orNil(slide.Keywords)
	slide.Embedding = orNil(slide.Embedding)
	slide.CreatedAt, slide.UpdatedAt = utc(slide.CreatedAt), utc(slide.UpdatedAt)
	return slide, nil
}

// orNil maps a decoded empty collection back to nil. A nil embedding marks a
// record that is not semantically searchable.
func orNil[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

// utc drops the local zone the codec attaches. A zero time stays zero.
func utc(t time.Time) time.Time {
	return t.UTC()
}
