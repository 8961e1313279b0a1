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


package analysis

import (
	"strings"
	"unicode"
)

// cleanResponse strips markdown code fences and repairs keys that lost their
// opening quote.
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	return repairKeys(text)
}

// repairKeys rewrites `, slide_type":` as `, "slide_type":`. Only a run of
// key characters directly following '{' or ',' and ending in `":` is touched.
func repairKeys(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+16)
	inString := false

	for i := 0; i < len(src); i++ {
		ch := src[i]
		if inString {
			out = append(out, ch)
			switch ch {
			case '\\':
				if i+1 < len(src) {
					i++
					out = append(out, src[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		out = append(out, ch)
		switch ch {
		case '"':
			inString = true
		case '{', ',':
			j := i + 1
			for j < len(src) && unicode.IsSpace(src[j]) {
				j++
			}
			k := j
			for k < len(src) && isKeyRune(src[k]) {
				k++
			}
			if k > j && unicode.IsLetter(src[j]) && k+1 < len(src) && src[k] == '"' && src[k+1] == ':' {
				out = append(out, src[i+1:j]...)
				out = append(out, '"')
				out = append(out, src[j:k]...)
				out = append(out, '"')
				i = k
			}
		}
	}
	return string(out)
}

func isKeyRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
