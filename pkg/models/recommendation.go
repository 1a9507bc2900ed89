package models

import "time"

// ScoredEntity is the stable wire shape for any ranked result (spec §6).
type ScoredEntity struct {
	EntityID   string  `json:"entity_id"`
	EntityType string  `json:"entity_type"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason,omitempty"`
}

// Algorithm names the scoring path that produced a response.
type Algorithm string

const (
	AlgorithmCollaborative Algorithm = "collaborative"
	AlgorithmContentBased  Algorithm = "content_based"
	AlgorithmHybrid        Algorithm = "hybrid"
	AlgorithmDegraded      Algorithm = "degraded"
	AlgorithmTrending      Algorithm = "trending"
)

// RecommendationResponse is returned by GetUserRecommendations.
type RecommendationResponse struct {
	Recommendations []ScoredEntity `json:"recommendations"`
	Algorithm       Algorithm      `json:"algorithm"`
	ColdStart       bool           `json:"cold_start"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// TrendingResponse is returned by GetTrendingEntities.
type TrendingResponse struct {
	Trending []ScoredEntity `json:"trending"`
	Count    int            `json:"count"`
}

// RecommendationFilter applies to get_user_recommendations and
// get_similar_entities, post-ANN (spec §4.10). get_trending_entities does not
// take it: TrendingRequest carries only an entity type, and exclusion ids and
// min_score are not applied to trending results.
type RecommendationFilter struct {
	EntityType        string
	ExcludeEntityIDs  []string
	MinScore          float64
}

// RecommendationRequest is the inbound shape for GetUserRecommendations.
type RecommendationRequest struct {
	UserID    string                `json:"user_id" validate:"required,max=255"`
	Algorithm Algorithm             `json:"algorithm,omitempty"`
	Count     int                   `json:"count" validate:"min=0,max=100"`
	Filter    RecommendationFilter  `json:"-"`
	WCollab   *float64              `json:"w_collab,omitempty"`
	WContent  *float64              `json:"w_content,omitempty"`
}

// SimilarEntitiesRequest is the inbound shape for GetSimilarEntities.
type SimilarEntitiesRequest struct {
	EntityID string               `json:"entity_id" validate:"required,max=255"`
	Count    int                  `json:"count" validate:"min=0,max=100"`
	Filter   RecommendationFilter `json:"-"`
}

// TrendingRequest is the inbound shape for GetTrendingEntities.
type TrendingRequest struct {
	EntityType string
	Count      int `validate:"min=0,max=100"`
	Window     time.Duration
}

// RecommendationFeedback is the shape of a feedback record. No operation in
// this module consumes it, and it does not change a user's seed_version.
type RecommendationFeedback struct {
	UserID       string    `json:"user_id" validate:"required,max=255"`
	EntityID     string    `json:"entity_id" validate:"required,max=255"`
	FeedbackType string    `json:"feedback_type" validate:"required,oneof=positive negative not_interested"`
	Timestamp    time.Time `json:"timestamp"`
}
