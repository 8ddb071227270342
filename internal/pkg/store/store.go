package store

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// keyPrefix mirrors the reference path layout the mobile app reads from.
const keyPrefix = "active_subscriptions:"

// Record is the live key-value view of a subscription, keyed by the
// gateway-assigned subscription id. Timestamps are ISO-8601 strings and are
// written once; later writes only merge the fields they own.
type Record struct {
	SubscriptionID string `json:"subscriptionId" redis:"subscriptionId"`
	CustomerID     string `json:"customerId" redis:"customerId"`
	Status         string `json:"status" redis:"status"`
	OriginalPlanID string `json:"originalPlanId" redis:"originalPlanId"`
	CurrentPlanID  string `json:"currentPlanId" redis:"currentPlanId"`
	IsUpgraded     bool   `json:"isUpgraded" redis:"isUpgraded"`
	CreatedAt      string `json:"createdAt,omitempty" redis:"createdAt"`
	ActivatedAt    string `json:"activatedAt,omitempty" redis:"activatedAt"`
	UpgradedAt     string `json:"upgradedAt,omitempty" redis:"upgradedAt"`
	StartsAt       string `json:"startsAt,omitempty" redis:"startsAt"`
}

// RecordStore is the key-value persistence collaborator: full overwrite,
// field merge, and read-back per subscription id.
type RecordStore interface {
	SetRecord(ctx context.Context, id string, rec Record) error
	UpdateRecord(ctx context.Context, id string, fields map[string]string) error
	GetRecord(ctx context.Context, id string) (*Record, error)
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RecordStore backed by Redis hashes.
func NewRedisStore(client *redis.Client) RecordStore {
	return &redisStore{client: client}
}

func (s *redisStore) SetRecord(ctx context.Context, id string, rec Record) error {
	key := keyPrefix + id
	fields := recordFields(rec)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) UpdateRecord(ctx context.Context, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		args[k] = v
	}
	return s.client.HSet(ctx, keyPrefix+id, args).Err()
}

func (s *redisStore) GetRecord(ctx context.Context, id string) (*Record, error) {
	vals, err := s.client.HGetAll(ctx, keyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	rec := &Record{
		SubscriptionID: vals["subscriptionId"],
		CustomerID:     vals["customerId"],
		Status:         vals["status"],
		OriginalPlanID: vals["originalPlanId"],
		CurrentPlanID:  vals["currentPlanId"],
		CreatedAt:      vals["createdAt"],
		ActivatedAt:    vals["activatedAt"],
		UpgradedAt:     vals["upgradedAt"],
		StartsAt:       vals["startsAt"],
	}
	rec.IsUpgraded, _ = strconv.ParseBool(vals["isUpgraded"])
	return rec, nil
}

func recordFields(rec Record) map[string]interface{} {
	fields := map[string]interface{}{
		"subscriptionId": rec.SubscriptionID,
		"customerId":     rec.CustomerID,
		"status":         rec.Status,
		"originalPlanId": rec.OriginalPlanID,
		"currentPlanId":  rec.CurrentPlanID,
		"isUpgraded":     strconv.FormatBool(rec.IsUpgraded),
	}
	if rec.CreatedAt != "" {
		fields["createdAt"] = rec.CreatedAt
	}
	if rec.ActivatedAt != "" {
		fields["activatedAt"] = rec.ActivatedAt
	}
	if rec.UpgradedAt != "" {
		fields["upgradedAt"] = rec.UpgradedAt
	}
	if rec.StartsAt != "" {
		fields["startsAt"] = rec.StartsAt
	}
	return fields
}
