package bootstrap

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func validTestConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "leirefolket_test",
		SessionKey:    "0123456789abcdef0123456789abcdef",
		SessionMaxAge: time.Hour,
		CSRFKey:       strings.Repeat("k", 32),
	}
}

func TestValidateConfig_AcceptsValid(t *testing.T) {
	if err := ValidateConfig(nil, validTestConfig(), zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestValidateConfig_RejectsBadMongoURI(t *testing.T) {
	cfg := validTestConfig()
	cfg.MongoURI = "http://not-a-mongo-uri"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for non-mongodb URI")
	}
}

func TestValidateConfig_RejectsShortCSRFKey(t *testing.T) {
	cfg := validTestConfig()
	cfg.CSRFKey = "too-short"
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for short csrf key")
	}
}

func TestValidateConfig_RejectsZeroSessionMaxAge(t *testing.T) {
	cfg := validTestConfig()
	cfg.SessionMaxAge = 0
	if err := ValidateConfig(nil, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for zero session max age")
	}
}
