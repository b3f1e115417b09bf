package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/example/roomreserve/internal/conflict"
	"github.com/example/roomreserve/internal/history"
	"github.com/example/roomreserve/internal/notify"
)

// Storage backend selectors.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config captures environment driven configuration values for the
// reservation service.
type Config struct {
	Storage         string
	SQLiteDSN       string
	HistoryCapacity int
	PolicyName      string
	LenientMargin   int
	ActiveQuota     int
	AMQPURL         string
	NotifyQueue     string
}

// Load parses configuration values from the current process environment.
//
// Every value is optional: the defaults describe a single user in-memory
// setup with the strict conflict policy and confirmations written to the
// log. Invalid values are collected and reported in one error.
func Load() (Config, error) {
	cfg := Config{
		Storage:         StorageMemory,
		SQLiteDSN:       "file:roomreserve.db",
		HistoryCapacity: history.DefaultCapacity,
		PolicyName:      "strict",
		LenientMargin:   conflict.DefaultLenientMargin,
		ActiveQuota:     3,
		NotifyQueue:     notify.DefaultQueue,
	}

	invalid := make([]string, 0, 2)

	if storage := strings.TrimSpace(os.Getenv("ROOMRESERVE_STORAGE")); storage != "" {
		switch strings.ToLower(storage) {
		case StorageMemory, StorageSQLite:
			cfg.Storage = strings.ToLower(storage)
		default:
			invalid = append(invalid, "ROOMRESERVE_STORAGE")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ROOMRESERVE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if capacityValue := strings.TrimSpace(os.Getenv("ROOMRESERVE_HISTORY_CAPACITY")); capacityValue != "" {
		capacity, err := strconv.Atoi(capacityValue)
		if err != nil || capacity <= 0 {
			invalid = append(invalid, "ROOMRESERVE_HISTORY_CAPACITY")
		} else {
			cfg.HistoryCapacity = capacity
		}
	}

	if policyValue := strings.TrimSpace(os.Getenv("ROOMRESERVE_POLICY")); policyValue != "" {
		policy, err := conflict.ParsePolicy(policyValue)
		if err != nil {
			invalid = append(invalid, "ROOMRESERVE_POLICY")
		} else {
			cfg.PolicyName = policy.Name()
		}
	}

	// The margin must be strictly positive: the lenient policy treats a
	// non-positive margin as "use the default", so accepting 0 here would
	// silently book with a 5 minute gap instead.
	if marginValue := strings.TrimSpace(os.Getenv("ROOMRESERVE_LENIENT_MARGIN")); marginValue != "" {
		margin, err := strconv.Atoi(marginValue)
		if err != nil || margin <= 0 {
			invalid = append(invalid, "ROOMRESERVE_LENIENT_MARGIN")
		} else {
			cfg.LenientMargin = margin
		}
	}

	if quotaValue := strings.TrimSpace(os.Getenv("ROOMRESERVE_ACTIVE_QUOTA")); quotaValue != "" {
		quota, err := strconv.Atoi(quotaValue)
		if err != nil || quota <= 0 {
			invalid = append(invalid, "ROOMRESERVE_ACTIVE_QUOTA")
		} else {
			cfg.ActiveQuota = quota
		}
	}

	if url := strings.TrimSpace(os.Getenv("ROOMRESERVE_AMQP_URL")); url != "" {
		cfg.AMQPURL = url
	}

	if queue := strings.TrimSpace(os.Getenv("ROOMRESERVE_NOTIFY_QUEUE")); queue != "" {
		cfg.NotifyQueue = queue
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Policy materializes the configured conflict policy.
func (c Config) Policy() conflict.Policy {
	if c.PolicyName == (conflict.Lenient{}).Name() {
		return conflict.Lenient{MarginMinutes: c.LenientMargin}
	}
	return conflict.Strict{}
}
