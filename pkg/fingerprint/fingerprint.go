// Package fingerprint maps question text to a fixed-length vector for
// similarity lookup. This is a hand-built lexical fingerprint, not a learned
// embedding: it captures token overlap and keyword salience, not semantic
// meaning. Two questions using the same words fingerprint close together;
// paraphrases do not.
package fingerprint

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"unicode"
)

// Dimension is the fingerprint vector length, matching the similarity-index
// collection size.
const Dimension = 384

// normEpsilon is the threshold below which the accumulated vector collapses
// to all-zero instead of being normalized.
const normEpsilon = 1e-10

const (
	sqlKeywordBoost   = 2.0
	businessTermBoost = 1.5
	tokenVectorScale  = 0.3
	minTokenLength    = 3
)

// sqlKeywords get a higher weight: they signal query shape (aggregation,
// joining, ordering) which matters more for retrieval than filler words.
var sqlKeywords = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "join": {}, "group": {}, "order": {},
	"having": {}, "count": {}, "sum": {}, "avg": {}, "max": {}, "min": {},
	"distinct": {}, "limit": {}, "offset": {}, "inner": {}, "left": {},
	"right": {}, "outer": {}, "union": {}, "intersect": {}, "except": {},
	"case": {}, "when": {}, "then": {}, "else": {}, "end": {}, "exists": {},
	"between": {}, "like": {},
}

// businessTerms get a moderate boost; they tend to name the tables and
// columns the stored examples were written against.
var businessTerms = map[string]struct{}{
	"customer": {}, "order": {}, "product": {}, "sale": {}, "revenue": {},
	"profit": {}, "quantity": {}, "price": {}, "total": {}, "amount": {},
	"date": {}, "time": {}, "month": {}, "year": {}, "category": {},
	"status": {}, "name": {}, "email": {}, "address": {}, "phone": {},
	"city": {}, "state": {}, "country": {}, "employee": {}, "department": {},
	"salary": {},
}

// stopWords are dropped before weighting.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {},
	"this": {}, "that": {}, "there": {}, "what": {}, "which": {}, "who": {},
	"how": {}, "did": {}, "does": {}, "has": {}, "have": {}, "had": {},
	"can": {}, "could": {}, "would": {}, "should": {}, "please": {},
	"show": {}, "list": {}, "give": {}, "get": {}, "all": {},
}

// Embed produces the Dimension-length fingerprint of text. It is a pure
// deterministic function of its input: the same text always yields the same
// vector. The result is L2-normalized unless every token was filtered out,
// in which case it is the all-zero vector.
func Embed(text string) []float32 {
	vec := make([]float32, Dimension)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	acc := make([]float64, Dimension)
	for token, weight := range tokenWeights(tokens) {
		tokenVec := tokenVector(token)
		for i := range acc {
			acc[i] += tokenVec[i] * weight
		}
	}

	return normalize(acc, vec)
}

// tokenize lowercases, replaces every non-alphanumeric rune with a space,
// and keeps tokens of at least minTokenLength that are not stop words.
func tokenize(text string) []string {
	lower := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	var tokens []string
	for _, word := range strings.Fields(lower) {
		if len(word) < minTokenLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// tokenWeights computes a term-frequency weight per unique token, boosted
// multiplicatively for SQL keywords and business terms.
func tokenWeights(tokens []string) map[string]float64 {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	weights := make(map[string]float64, len(counts))
	for tok, count := range counts {
		weight := float64(count) / float64(len(tokens))
		if _, ok := sqlKeywords[tok]; ok {
			weight *= sqlKeywordBoost
		}
		if _, ok := businessTerms[tok]; ok {
			weight *= businessTermBoost
		}
		weights[tok] = weight
	}
	return weights
}

// tokenVector draws three Gaussian vectors from three distinct seeds derived
// from the token's bytes and length, and averages them. Seeded generators
// make the draw deterministic per token.
func tokenVector(token string) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	base := int64(h.Sum64())

	seeds := [3]int64{
		base,
		base*31 + int64(len(token)),
		base*37 - int64(len(token)),
	}

	rngs := [3]*rand.Rand{
		rand.New(rand.NewSource(seeds[0])),
		rand.New(rand.NewSource(seeds[1])),
		rand.New(rand.NewSource(seeds[2])),
	}

	vec := make([]float64, Dimension)
	for i := range vec {
		sum := 0.0
		for _, rng := range rngs {
			sum += rng.NormFloat64() * tokenVectorScale
		}
		vec[i] = sum / 3.0
	}
	return vec
}

// normalize L2-normalizes acc into out, or leaves out all-zero when the norm
// is below epsilon.
func normalize(acc []float64, out []float32) []float32 {
	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm < normEpsilon {
		return out
	}

	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between two equal-length
// vectors, or 0 when either has zero norm.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
