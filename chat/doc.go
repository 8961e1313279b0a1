// Package chat answers free-form questions about the deck library.
//
// An Answerer embeds the question, retrieves the most similar topics and
// slides, renders them as numbered snippets and asks a chat model to
// recommend decks and slides from those snippets only. Every snippet that
// reached the model is returned as a reference. Questions are independent:
// no conversation state is kept between calls.
package chat
