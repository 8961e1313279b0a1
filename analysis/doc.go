// Package analysis asks a chat model to structure raw deck text.
//
// An Analyzer produces three kinds of records from slide-by-slide text:
// deck-level metadata, topic segments covering groups of slides, and a label
// for each individual slide. Every model response is cleaned, parsed and
// checked against the expected shape before it is returned; responses that
// are not valid JSON are retried, responses with the wrong shape are not.
//
// Parsing is exposed separately through ParseDeckMetadata, ParseTopics and
// ParseSlideLabel, which return an Outcome: either Parsed with the record or
// Refused with the Rejected reason.
package analysis
