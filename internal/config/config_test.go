package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/temcen/recoforge/pkg/models"
)

func TestValidate_HybridWeightsMustSumToOne(t *testing.T) {
	cfg := defaultValidConfig()
	cfg.Algorithm.Hybrid.WCollab = 0.4
	cfg.Algorithm.Hybrid.WContent = 0.4

	err := cfg.Validate()
	assert.Error(t, err)
	var cfgErr *models.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidate_SimilarityThresholdBounds(t *testing.T) {
	cfg := defaultValidConfig()
	cfg.Algorithm.SimilarityThreshold = 1.5

	assert.Error(t, cfg.Validate())
}

func TestValidate_PoolMinLEMax(t *testing.T) {
	cfg := defaultValidConfig()
	cfg.Database.MinConnections = 50
	cfg.Database.MaxConnections = 25

	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := defaultValidConfig()
	assert.NoError(t, cfg.Validate())
}

func defaultValidConfig() *Config {
	return &Config{
		Database: DatabaseConfig{MinConnections: 2, MaxConnections: 25},
		Feature:  FeatureConfig{Dimension: 512},
		Algorithm: AlgorithmConfig{
			SimilarityThreshold: 0.5,
			Hybrid:              HybridConfig{WCollab: 0.5, WContent: 0.5},
			Tiers: TierWeightTable{
				NewUser:  HybridConfig{WCollab: 0.2, WContent: 0.8},
				Active:   HybridConfig{WCollab: 0.5, WContent: 0.5},
				Power:    HybridConfig{WCollab: 0.7, WContent: 0.3},
				Inactive: HybridConfig{WCollab: 0.3, WContent: 0.7},
			},
		},
	}
}
