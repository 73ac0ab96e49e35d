package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Driver != DriverFile {
		t.Errorf("expected file driver by default, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.FilePath != "data/pos.json" {
		t.Errorf("unexpected file path %s", cfg.Storage.FilePath)
	}
	if cfg.Storage.KeyPrefix != "autoparts_" {
		t.Errorf("unexpected key prefix %s", cfg.Storage.KeyPrefix)
	}
	if !cfg.Shop.ClampDiscount {
		t.Errorf("expected discount clamp to default on")
	}
	if cfg.Shop.BirthdayWindowDays != 7 || cfg.Shop.TopCustomers != 5 {
		t.Errorf("unexpected shop defaults %+v", cfg.Shop)
	}
	if cfg.Events.Enabled() {
		t.Errorf("expected events disabled without a topic")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unexpected log level %s", cfg.Log.Level)
	}
}

func TestLoadOverrides(t *testing.T) {
	env := map[string]string{
		"POS_SERVER_PORT":             "9090",
		"POS_SERVER_WRITE_TIMEOUT":    "45s",
		"POS_STORAGE_DRIVER":          "FIRESTORE",
		"POS_FIRESTORE_PROJECT_ID":    "shop-dev",
		"POS_FIRESTORE_EMULATOR_HOST": "localhost:8081",
		"POS_EVENTS_TOPIC":            "orders",
		"POS_CUSTOMER_DISCOUNT_CLAMP": "off",
		"POS_BIRTHDAY_WINDOW_DAYS":    "14",
	}
	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("server overrides not applied: %+v", cfg.Server)
	}
	if cfg.Storage.Driver != DriverFirestore {
		t.Errorf("expected firestore driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Events.ProjectID != "shop-dev" {
		t.Errorf("expected events project to default to firestore project, got %s", cfg.Events.ProjectID)
	}
	if cfg.Shop.ClampDiscount {
		t.Errorf("expected discount clamp disabled")
	}
	if cfg.Shop.BirthdayWindowDays != 14 {
		t.Errorf("unexpected birthday window %d", cfg.Shop.BirthdayWindowDays)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]struct {
		env   map[string]string
		field string
	}{
		"unknown driver":      {map[string]string{"POS_STORAGE_DRIVER": "mongo"}, "Storage.Driver"},
		"postgres needs dsn":  {map[string]string{"POS_STORAGE_DRIVER": "postgres"}, "Storage.PostgresDSN"},
		"firestore project":   {map[string]string{"POS_STORAGE_DRIVER": "firestore"}, "Firestore.ProjectID"},
		"top customers":       {map[string]string{"POS_STATS_TOP_CUSTOMERS": "0"}, "Shop.TopCustomers"},
		"events without proj": {map[string]string{"POS_EVENTS_TOPIC": "orders"}, "Events.ProjectID"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(context.Background(), WithEnvMap(tc.env), WithoutSystemEnv(), WithEnvFile(""))
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, f := range validationErr.Fields() {
				if f == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected field %s in %v", tc.field, validationErr.Fields())
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nPOS_SERVER_PORT=7070\nexport POS_STORAGE_DRIVER=\"memory\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"POS_SERVER_PORT": "6060"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("expected env map to win over dotenv, got %s", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("expected dotenv driver memory, got %s", cfg.Storage.Driver)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("expected missing dotenv to be ignored, got %v", err)
	}
}
