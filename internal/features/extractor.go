// Package features implements FeatureExtractor (C1): deterministic
// hashing-based featurization of schemaless entity attributes into
// fixed-dimension unit vectors.
package features

import (
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/floats"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/pkg/models"
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Extractor maps an attribute map to a D-dimensional unit vector. It keeps
// per-(tenant, key) running numeric ranges and per-(tenant, key) IDF tables,
// both built up lazily as attributes are observed — there is no offline
// training step.
type Extractor struct {
	dimension int
	logger    *logrus.Logger

	mu     sync.Mutex
	ranges map[string]*numericRange
	idf    map[string]*idfTable
}

type numericRange struct {
	min, max float64
}

// idfTable tracks document frequency per term for a (tenant, key) text
// attribute, refreshed lazily as documents are seen.
type idfTable struct {
	docCount int
	termDocs map[string]int
}

func New(cfg *config.FeatureConfig, logger *logrus.Logger) *Extractor {
	return &Extractor{
		dimension: cfg.Dimension,
		logger:    logger,
		ranges:    make(map[string]*numericRange),
		idf:       make(map[string]*idfTable),
	}
}

// Extract turns attrs into an L2-normalized unit vector of length D. A
// zero-vector input (empty attrs, or all-cancelling contributions) produces
// the deterministic tie-breaker 1/sqrt(D) in every position (spec §4.1).
func (e *Extractor) Extract(tenantID string, attrs models.AttributeMap) ([]float32, error) {
	if err := validateAttributes(attrs, 0); err != nil {
		return nil, err
	}

	vec := make([]float64, e.dimension)

	for key, val := range attrs {
		switch val.Kind {
		case models.AttributeString:
			e.encodeCategorical(vec, key, val.Str)
		case models.AttributeStringArray:
			e.encodeStringArray(vec, key, val.StrArray)
		case models.AttributeNumber:
			if err := e.encodeNumeric(vec, tenantID, key, val.Num); err != nil {
				return nil, err
			}
		case models.AttributeBool:
			e.encodeBool(vec, key, val.Bool)
		case models.AttributeText:
			e.encodeText(vec, tenantID, key, val.Str)
		}
	}

	return e.finalize(vec), nil
}

func (e *Extractor) bucket(key, value string) int {
	h := xxhash.Sum64String(key + ":" + value)
	return int(h % uint64(e.dimension))
}

func (e *Extractor) keyBucket(key string) int {
	h := xxhash.Sum64String(key)
	return int(h % uint64(e.dimension))
}

func (e *Extractor) encodeCategorical(vec []float64, key, value string) {
	idx := e.bucket(key, value)
	vec[idx] += 1
}

func (e *Extractor) encodeStringArray(vec []float64, key string, values []string) {
	if len(values) == 0 {
		return
	}
	contribution := 1 / math.Sqrt(float64(len(values)))
	for _, v := range values {
		idx := e.bucket(key, v)
		vec[idx] += contribution
	}
}

func (e *Extractor) encodeNumeric(vec []float64, tenantID, key string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &models.FeatureError{Key: key, Reason: models.ReasonInvalid, Detail: "non-finite number"}
	}

	rangeKey := tenantID + ":" + key
	e.mu.Lock()
	r, ok := e.ranges[rangeKey]
	if !ok {
		r = &numericRange{min: value, max: value}
		e.ranges[rangeKey] = r
	} else {
		if value < r.min {
			r.min = value
		}
		if value > r.max {
			r.max = value
		}
	}
	min, max := r.min, r.max
	e.mu.Unlock()

	normalized := 0.5
	if max > min {
		normalized = (value - min) / (max - min)
	}

	idx := e.keyBucket(key)
	idxNext := (idx + 1) % e.dimension
	vec[idx] += normalized
	vec[idxNext] += 1 - normalized
	return nil
}

func (e *Extractor) encodeBool(vec []float64, key string, value bool) {
	idx := e.keyBucket(key)
	if value {
		vec[idx] += 1
	} else {
		vec[idx] -= 1
	}
}

func (e *Extractor) encodeText(vec []float64, tenantID, key, text string) {
	text = norm.NFC.String(text)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return
	}

	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	for tok := range tf {
		tf[tok] /= float64(len(tokens))
	}

	tableKey := tenantID + ":" + key
	e.mu.Lock()
	table, ok := e.idf[tableKey]
	if !ok {
		table = &idfTable{termDocs: make(map[string]int)}
		e.idf[tableKey] = table
	}
	table.docCount++
	for tok := range tf {
		table.termDocs[tok]++
	}
	docCount := table.docCount
	termDocs := make(map[string]int, len(tf))
	for tok := range tf {
		termDocs[tok] = table.termDocs[tok]
	}
	e.mu.Unlock()

	for tok, tfVal := range tf {
		idf := math.Log(float64(docCount+1)/float64(termDocs[tok]+1)) + 1
		idx := e.keyBucket(tok)
		vec[idx] += tfVal * idf
	}
}

func (e *Extractor) finalize(vec []float64) []float32 {
	norm := floats.Norm(vec, 2)
	out := make([]float32, len(vec))
	if norm == 0 {
		uniform := float32(1 / math.Sqrt(float64(len(vec))))
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
