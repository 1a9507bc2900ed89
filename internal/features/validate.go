package features

import "github.com/temcen/recoforge/pkg/models"

// validateAttributes enforces the structural bounds of spec §4.1: string
// length, array length, nesting depth, and implicitly (via encodeNumeric)
// numeric finiteness. depth is the caller's current nesting level, starting
// at 0; values are rejected here rather than via a JSON-Schema document
// since the bounds are fixed and not tenant-configurable (see DESIGN.md).
func validateAttributes(attrs models.AttributeMap, depth int) error {
	if depth > models.MaxAttributeNesting {
		return &models.FeatureError{Reason: models.ReasonOverflow, Detail: "attribute nesting exceeds limit"}
	}
	for key, val := range attrs {
		if depth+val.NestedLevel > models.MaxAttributeNesting {
			return &models.FeatureError{Key: key, Reason: models.ReasonOverflow, Detail: "attribute nesting exceeds limit"}
		}
		switch val.Kind {
		case models.AttributeString, models.AttributeText:
			if len(val.Str) > models.MaxAttributeStringLen {
				return &models.FeatureError{Key: key, Reason: models.ReasonOverflow, Detail: "string exceeds max length"}
			}
		case models.AttributeStringArray:
			if len(val.StrArray) > models.MaxAttributeArrayLen {
				return &models.FeatureError{Key: key, Reason: models.ReasonOverflow, Detail: "array exceeds max length"}
			}
			for _, s := range val.StrArray {
				if len(s) > models.MaxAttributeStringLen {
					return &models.FeatureError{Key: key, Reason: models.ReasonOverflow, Detail: "array item exceeds max length"}
				}
			}
		}
	}
	return nil
}
