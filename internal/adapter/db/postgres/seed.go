package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var demoUsers = []UserSchema{
	{FirstName: "Emily", Email: "emily.johnson@x.dummyjson.com", Attributes: attrs(`{"lastName":"Johnson","age":28,"gender":"female"}`)},
	{FirstName: "Michael", Email: "michael.williams@x.dummyjson.com", Attributes: attrs(`{"lastName":"Williams","age":35,"gender":"male"}`)},
	{FirstName: "Sophia", Email: "sophia.brown@x.dummyjson.com", Attributes: attrs(`{"lastName":"Brown","age":42,"gender":"female"}`)},
	{FirstName: "James", Email: "james.davis@x.dummyjson.com", Attributes: attrs(`{"lastName":"Davis","age":45,"gender":"male"}`)},
	{FirstName: "Emma", Email: "emma.miller@x.dummyjson.com", Attributes: attrs(`{"lastName":"Miller","age":30,"gender":"female"}`)},
	{FirstName: "Olivia", Email: "olivia.wilson@x.dummyjson.com", Attributes: attrs(`{"lastName":"Wilson","age":22,"gender":"female"}`)},
	{FirstName: "Alexander", Email: "alexander.jones@x.dummyjson.com", Attributes: attrs(`{"lastName":"Jones","age":38,"gender":"male"}`)},
	{FirstName: "Ava", Email: "ava.taylor@x.dummyjson.com", Attributes: attrs(`{"lastName":"Taylor","age":27,"gender":"female"}`)},
	{FirstName: "Ethan", Email: "ethan.martinez@x.dummyjson.com", Attributes: attrs(`{"lastName":"Martinez","age":33,"gender":"male"}`)},
	{FirstName: "Isabella", Email: "isabella.anderson@x.dummyjson.com", Attributes: attrs(`{"lastName":"Anderson","age":31,"gender":"female"}`)},
}

func attrs(raw string) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		panic(err)
	}
	return m
}

// Seed inserts a small set of demo users when the users table is empty.
// It returns the number of inserted rows.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&UserSchema{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Debug("users table not empty, skipping seed", zap.Int64("count", count))
		return 0, nil
	}

	rows := make([]UserSchema, len(demoUsers))
	copy(rows, demoUsers)
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}

	log.Info("seeded demo users", zap.Int("count", len(rows)))
	return len(rows), nil
}
