package config

import (
	"strings"
	"testing"
)

func TestGetterDefaults(t *testing.T) {
	var c AppConfig

	if got := c.Database.GetDataRetentionDays(); got != 90 {
		t.Errorf("GetDataRetentionDays() expected 90, got %d", got)
	}
	if got := c.Tariff.GetSafetyMarginPercent(); got != 10 {
		t.Errorf("GetSafetyMarginPercent() expected 10, got %f", got)
	}
	if got := c.Balance.GetInterval(); got != 60 {
		t.Errorf("Balance.GetInterval() expected 60, got %d", got)
	}
	if got := c.Refresh.GetInterval(); got != 30 {
		t.Errorf("Refresh.GetInterval() expected 30, got %d", got)
	}
	if got := c.Alerts.GetLowSoc(); got != 15 {
		t.Errorf("GetLowSoc() expected 15, got %f", got)
	}
	if got := c.PriceForecast.GetCacheTtlMinutes(); got != 30 {
		t.Errorf("GetCacheTtlMinutes() expected 30, got %d", got)
	}
	if got := c.TargetSoc.GetValleTarget(); got != 100 {
		t.Errorf("GetValleTarget() expected 100, got %f", got)
	}
	if got := c.Mqtt.GetTopic(); got != "homebalance/notify" {
		t.Errorf("GetTopic() expected default topic, got %q", got)
	}
}

func TestValidateThresholdOrdering(t *testing.T) {
	c := AppConfig{
		TargetSoc: AppConfigTargetSoc{
			MinSoc:            10,
			AlwaysChargeBelow: 0.30,
			NeverChargeAbove:  0.10,
		},
	}

	warnings := c.Validate()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "not ordered") {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}

func TestValidateLoadPriority(t *testing.T) {
	c := AppConfig{
		TargetSoc: AppConfigTargetSoc{MinSoc: 10, AlwaysChargeBelow: 0.05, NeverChargeAbove: 0.20},
		Loads: []AppConfigLoad{
			{Id: "pool_pump", Priority: "accessory"},
			{Id: "oven", Priority: "critical"},
		},
	}

	warnings := c.Validate()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "oven") {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}
