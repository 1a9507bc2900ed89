package features

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/recoforge/internal/config"
	"github.com/temcen/recoforge/pkg/models"
)

func newTestExtractor() *Extractor {
	return New(&config.FeatureConfig{Dimension: 64}, logrus.New())
}

func TestExtract_IsL2Normalized(t *testing.T) {
	e := newTestExtractor()
	vec, err := e.Extract("t1", models.AttributeMap{
		"category": models.StringAttr("books"),
		"price":    models.NumberAttr(42),
		"tags":     models.StringArrayAttr([]string{"a", "b", "c"}),
		"in_stock": models.BoolAttr(true),
	})
	require.NoError(t, err)

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestExtract_IsDeterministic(t *testing.T) {
	e := newTestExtractor()
	attrs := models.AttributeMap{"category": models.StringAttr("books")}

	v1, err := e.Extract("t1", attrs)
	require.NoError(t, err)
	v2, err := e.Extract("t1", attrs)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestExtract_EmptyAttributesProducesUniformVector(t *testing.T) {
	e := newTestExtractor()
	vec, err := e.Extract("t1", models.AttributeMap{})
	require.NoError(t, err)

	expected := float32(1 / math.Sqrt(64))
	for _, v := range vec {
		assert.InDelta(t, expected, v, 1e-6)
	}
}

func TestExtract_NonFiniteNumberRejected(t *testing.T) {
	e := newTestExtractor()
	_, err := e.Extract("t1", models.AttributeMap{
		"price": models.NumberAttr(math.NaN()),
	})

	var featErr *models.FeatureError
	require.ErrorAs(t, err, &featErr)
	assert.Equal(t, models.ReasonInvalid, featErr.Reason)
}

func TestExtract_OversizedStringRejected(t *testing.T) {
	e := newTestExtractor()
	big := make([]byte, models.MaxAttributeStringLen+1)
	_, err := e.Extract("t1", models.AttributeMap{
		"description": models.StringAttr(string(big)),
	})

	var featErr *models.FeatureError
	require.ErrorAs(t, err, &featErr)
	assert.Equal(t, models.ReasonOverflow, featErr.Reason)
}

func TestExtract_StringArrayNormalizesIndependentOfLength(t *testing.T) {
	e := newTestExtractor()
	v1, err := e.Extract("t1", models.AttributeMap{
		"tags": models.StringArrayAttr([]string{"a"}),
	})
	require.NoError(t, err)

	v2, err := e.Extract("t1", models.AttributeMap{
		"tags": models.StringArrayAttr([]string{"a", "b", "c", "d"}),
	})
	require.NoError(t, err)

	var n1, n2 float64
	for i := range v1 {
		n1 += float64(v1[i]) * float64(v1[i])
		n2 += float64(v2[i]) * float64(v2[i])
	}
	assert.InDelta(t, 1.0, math.Sqrt(n1), 1e-6)
	assert.InDelta(t, 1.0, math.Sqrt(n2), 1e-6)
}
