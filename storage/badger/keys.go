package badger

import (
	"encoding/binary"

	"github.com/poiesic/deckdex/core"
)

// Key prefixes for different data types. All numeric key parts are big-endian
// so that prefix iteration follows numeric order.
const (
	deckPrefix         = "dk:"
	deckExternalPrefix = "dx:"
	topicPrefix        = "tp:"
	topicIndexPrefix   = "ti:"
	slidePrefix        = "sl:"
	slideIndexPrefix   = "si:"

	deckIDSeq  = "seq:deck"
	topicIDSeq = "seq:topic"
	slideIDSeq = "seq:slide"
)

func appendUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// makeDeckKey generates a key for a deck by ID.
func makeDeckKey(id core.ID) []byte {
	return appendUint64([]byte(deckPrefix), uint64(id))
}

// makeDeckExternalKey generates the external id index key.
// Format: prefix:hash(externalFileID)
func makeDeckExternalKey(externalFileID string) []byte {
	return appendUint64([]byte(deckExternalPrefix), uint64(core.IDFromContent(externalFileID)))
}

// makeTopicKey generates a composite key for a topic.
// Format: prefix:deckID:topicID
func makeTopicKey(deckID, topicID core.ID) []byte {
	return appendUint64(makeDeckTopicsPrefix(deckID), uint64(topicID))
}

// makeDeckTopicsPrefix generates the partial key covering one deck's topics.
func makeDeckTopicsPrefix(deckID core.ID) []byte {
	return appendUint64([]byte(topicPrefix), uint64(deckID))
}

// makeTopicIndexKey maps a topic ID to its primary key.
func makeTopicIndexKey(topicID core.ID) []byte {
	return appendUint64([]byte(topicIndexPrefix), uint64(topicID))
}

// makeSlideKey generates a composite key for a slide.
// Format: prefix:deckID:slideNumber
func makeSlideKey(deckID core.ID, number int) []byte {
	return appendUint64(makeDeckSlidesPrefix(deckID), uint64(number))
}

// makeDeckSlidesPrefix generates the partial key covering one deck's slides.
func makeDeckSlidesPrefix(deckID core.ID) []byte {
	return appendUint64([]byte(slidePrefix), uint64(deckID))
}

// makeSlideIndexKey maps a slide ID to its primary key.
func makeSlideIndexKey(slideID core.ID) []byte {
	return appendUint64([]byte(slideIndexPrefix), uint64(slideID))
}
