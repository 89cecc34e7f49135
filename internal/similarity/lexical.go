// Package similarity implements the scoring used for duplicate detection:
// lexical title/description similarity and vector cosine similarity.
package similarity

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Weights for the combined lexical score.
const (
	titleWeight       = 0.6
	descriptionWeight = 0.4
)

// normalizeTitle case-folds the title and canonicalizes word order so that
// swapped words ("Projector broken" vs "Broken projector") compare as equal
// before edit distance is applied.
func normalizeTitle(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// TitleSimilarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) over the
// normalized titles. Identical titles score 1.0; the result is always in [0, 1].
func TitleSimilarity(a, b string) float64 {
	na := normalizeTitle(a)
	nb := normalizeTitle(b)

	if na == nb {
		return 1.0
	}

	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.Distance(na, nb, nil)

	return 1.0 - float64(dist)/float64(maxLen)
}

// DescriptionSimilarity returns the character-overlap similarity ratio of two
// descriptions in [0, 1]: 2 * matched / (len(a) + len(b)), where matched is the
// number of characters covered by recursively locating the longest common
// substring and repeating on the unmatched flanks.
func DescriptionSimilarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	matched := commonChars(ra, rb)

	return 2.0 * float64(matched) / float64(total)
}

// commonChars counts characters matched by the longest common substring and
// recursion on the segments to its left and right.
func commonChars(a, b []rune) int {
	posA, posB, length := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}

	sum := length
	sum += commonChars(a[:posA], b[:posB])
	sum += commonChars(a[posA+length:], b[posB+length:])

	return sum
}

func longestCommonSubstring(a, b []rune) (posA, posB, length int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// prev[j] is the length of the common run ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > length {
					length = cur[j]
					posA = i - length
					posB = j - length
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}

	return posA, posB, length
}

// CombinedScore weights title similarity at 0.6 and description similarity at 0.4.
func CombinedScore(titleSim, descSim float64) float64 {
	return titleWeight*titleSim + descriptionWeight*descSim
}

// LexicalScore computes the combined lexical similarity of two records'
// titles and descriptions.
func LexicalScore(titleA, descA, titleB, descB string) float64 {
	return CombinedScore(TitleSimilarity(titleA, titleB), DescriptionSimilarity(descA, descB))
}
