package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.test/api/")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg := Load()

	assert.Equal(t, "http://api.test/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "mavs.uta.edu", cfg.Storefront.InstitutionDomain)
	assert.Equal(t, 2, cfg.Storefront.ProductRetries)
	assert.Equal(t, "file", cfg.Session.Backend)
}

func TestSplitListEmpty(t *testing.T) {
	assert.Nil(t, splitList(""))
}
