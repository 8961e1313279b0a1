package core

import (
	"errors"
	"testing"
)

func vectorOf(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 0.01
	}
	return v
}

func TestValidateEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		vector  []float32
		wantErr bool
	}{
		{name: "exact dimensions", vector: vectorOf(EmbeddingDimensions), wantErr: false},
		{name: "nil vector", vector: nil, wantErr: true},
		{name: "too short", vector: vectorOf(3), wantErr: true},
		{name: "too long", vector: vectorOf(EmbeddingDimensions + 1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmbedding(tt.vector)
			if tt.wantErr && err == nil {
				t.Fatal("ValidateEmbedding() error = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ValidateEmbedding() error = %v, want nil", err)
			}
			if err != nil {
				if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrInvalidEmbedding) {
					t.Errorf("ValidateEmbedding() error = %v, want ErrValidation and ErrInvalidEmbedding", err)
				}
			}
		})
	}
}

func TestValidateDeck(t *testing.T) {
	tests := []struct {
		name    string
		deck    *Deck
		wantErr error
	}{
		{name: "valid deck", deck: &Deck{ExternalFileID: "f1", Title: "Deck"}, wantErr: nil},
		{name: "valid deck with empty title", deck: &Deck{ExternalFileID: "f1"}, wantErr: nil},
		{name: "nil deck", deck: nil, wantErr: ErrInvalidDeck},
		{name: "blank external id", deck: &Deck{ExternalFileID: "   "}, wantErr: ErrEmptyExternalFileID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeck(tt.deck)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDeck() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDeck() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateDeck() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   *Topic
		wantErr error
	}{
		{name: "valid without embedding", topic: &Topic{Title: "t", SlideNumbers: []int{1, 3, 7}}, wantErr: nil},
		{name: "valid with embedding", topic: &Topic{Title: "t", Embedding: vectorOf(EmbeddingDimensions)}, wantErr: nil},
		{name: "nil topic", topic: nil, wantErr: ErrInvalidTopic},
		{name: "zero slide number", topic: &Topic{SlideNumbers: []int{0}}, wantErr: ErrInvalidSlideNumber},
		{name: "negative slide number", topic: &Topic{SlideNumbers: []int{2, -1}}, wantErr: ErrInvalidSlideNumber},
		{name: "wrong embedding length", topic: &Topic{Embedding: vectorOf(12)}, wantErr: ErrInvalidEmbedding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTopic(tt.topic)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTopic() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTopic() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSlides(t *testing.T) {
	tests := []struct {
		name    string
		slides  []*Slide
		wantErr error
	}{
		{name: "empty list", slides: nil, wantErr: nil},
		{name: "valid slides", slides: []*Slide{{Number: 1}, {Number: 2, Embedding: vectorOf(EmbeddingDimensions)}}, wantErr: nil},
		{name: "zero number", slides: []*Slide{{Number: 0}}, wantErr: ErrInvalidSlideNumber},
		{name: "duplicate number", slides: []*Slide{{Number: 4}, {Number: 4}}, wantErr: ErrDuplicateSlideNumber},
		{name: "bad embedding", slides: []*Slide{{Number: 1, Embedding: vectorOf(1)}}, wantErr: ErrInvalidEmbedding},
		{name: "nil slide", slides: []*Slide{nil}, wantErr: ErrInvalidSlide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlides(tt.slides)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSlides() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSlides() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
