package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "file-123",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "1AbCdEfGhIjKlMnOpQrStUvWxYz-0123456789_presentation_export",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("file-1")
	id2 := IDFromContent("file-2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNormalizeStoryContext(t *testing.T) {
	tests := []struct {
		in   string
		want StoryContext
	}{
		{"credibility", StoryContextCredibility},
		{"Market Problem", StoryContextMarketProblem},
		{" solution_vision ", StoryContextSolutionVision},
		{"'results'", StoryContextResults},
		{"IMPLEMENTATION", StoryContextImplementation},
		{"something else", StoryContextOther},
		{"", StoryContextOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeStoryContext(tt.in); got != tt.want {
				t.Errorf("NormalizeStoryContext(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSlideType(t *testing.T) {
	tests := []struct {
		in   string
		want SlideType
	}{
		{"case_study", SlideTypeCaseStudy},
		{"Case Study", SlideTypeCaseStudy},
		{"data chart", SlideTypeDataChart},
		{"roadmap", SlideTypeRoadmap},
		{"agenda", SlideTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeSlideType(tt.in); got != tt.want {
				t.Errorf("NormalizeSlideType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeReusable(t *testing.T) {
	if got := NormalizeReusable(" Needs Edit "); got != ReusableNeedsEdit {
		t.Errorf("NormalizeReusable() = %q, want %q", got, ReusableNeedsEdit)
	}
	if got := NormalizeReusable("YES"); got != ReusableYes {
		t.Errorf("NormalizeReusable() = %q, want %q", got, ReusableYes)
	}
}
