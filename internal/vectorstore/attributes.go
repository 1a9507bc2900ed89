package vectorstore

import (
	"encoding/json"

	"github.com/temcen/recoforge/pkg/models"
)

// jsonAttribute is the wire shape AttributeMap is persisted as; attributes is
// a jsonb column, not a dedicated relational schema, per spec §9's guidance
// to avoid modeling schemaless attributes as an inheritance hierarchy.
type jsonAttribute struct {
	Kind     models.AttributeKind `json:"kind"`
	Str      string               `json:"str,omitempty"`
	Num      float64              `json:"num,omitempty"`
	Bool     bool                 `json:"bool,omitempty"`
	StrArray []string             `json:"str_array,omitempty"`
}

func attributesToJSON(attrs models.AttributeMap) []byte {
	out := make(map[string]jsonAttribute, len(attrs))
	for k, v := range attrs {
		out[k] = jsonAttribute{Kind: v.Kind, Str: v.Str, Num: v.Num, Bool: v.Bool, StrArray: v.StrArray}
	}
	b, _ := json.Marshal(out)
	return b
}

func attributesFromJSON(raw []byte) models.AttributeMap {
	var decoded map[string]jsonAttribute
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return models.AttributeMap{}
	}
	out := make(models.AttributeMap, len(decoded))
	for k, v := range decoded {
		out[k] = models.AttributeValue{Kind: v.Kind, Str: v.Str, Num: v.Num, Bool: v.Bool, StrArray: v.StrArray}
	}
	return out
}
