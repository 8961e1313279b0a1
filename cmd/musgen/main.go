// Command musgen generates the MUS codecs for the records deckdex persists.
// It is run through go generate in the core package.
package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/deckdex/core"
)

const outputPath = "./core/records_mus.gen.go"

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// go generate runs from core; output paths are relative to the module root
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/deckdex/core"),
	)
	if err != nil {
		panic(err)
	}

	g.AddDefinedType(reflect.TypeFor[core.ID]())
	g.AddDefinedType(reflect.TypeFor[core.StoryContext]())
	g.AddDefinedType(reflect.TypeFor[core.SlideType]())

	// Unix micro timestamps
	ts := typeops.WithTimeUnit(typeops.Micro)

	err = g.AddStruct(reflect.TypeFor[core.Deck](),
		structops.WithField(), // ID
		structops.WithField(), // ExternalFileID
		structops.WithField(), // SourceURL
		structops.WithField(), // Title
		structops.WithField(), // Summary
		structops.WithField(), // Themes
		structops.WithField(), // Audiences
		structops.WithField(), // UseCases
		structops.WithField(ts),
		structops.WithField(ts))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.Topic](),
		structops.WithField(), // ID
		structops.WithField(), // DeckID
		structops.WithField(), // Title
		structops.WithField(), // Summary
		structops.WithField(), // StoryContext
		structops.WithField(), // Keywords
		structops.WithField(), // ReuseSuggestions
		structops.WithField(), // SlideNumbers
		structops.WithField(), // Embedding
		structops.WithField(ts),
		structops.WithField(ts))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.Slide](),
		structops.WithField(), // ID
		structops.WithField(), // DeckID
		structops.WithField(), // Number
		structops.WithField(), // Caption
		structops.WithField(), // Type
		structops.WithField(), // Keywords
		structops.WithField(), // Reusable
		structops.WithField(), // Embedding
		structops.WithField(ts),
		structops.WithField(ts))
	if err != nil {
		panic(err)
	}

	bs, err := g.Generate()
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile(outputPath, bs, 0644); err != nil {
		panic(err)
	}
}
