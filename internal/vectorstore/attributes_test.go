package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/temcen/recoforge/pkg/models"
)

func TestAttributesJSONRoundTrip(t *testing.T) {
	attrs := models.AttributeMap{
		"category": models.StringAttr("books"),
		"price":    models.NumberAttr(19.99),
		"in_stock": models.BoolAttr(true),
		"tags":     models.StringArrayAttr([]string{"a", "b"}),
	}

	out := attributesFromJSON(attributesToJSON(attrs))
	assert.Equal(t, attrs, out)
}
