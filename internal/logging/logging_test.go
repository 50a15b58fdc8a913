package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))
	return db
}

func TestPGHandlerPersistsErrors(t *testing.T) {
	db := newTestDB(t)
	pg := NewPGHandler(db, time.Hour)
	var out bytes.Buffer
	log := slog.New(NewMultiHandler(NewJSONHandler(&out), pg))

	log.Info("join ok", "user_id", "u-1")
	log.With("action", "link").Error("partner link incomplete",
		"user_id", "u-1",
		"partnership_id", "p-1",
		"error", "store down",
		"attempts", 3,
	)
	pg.Stop()

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)

	got := logs[0]
	assert.Equal(t, "ERROR", got.Level)
	assert.Equal(t, "partner link incomplete", got.Message)
	assert.Equal(t, "link", got.Action)
	assert.Equal(t, "store down", got.Error)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "u-1", *got.UserID)
	require.NotNil(t, got.PartnershipID)
	assert.Equal(t, "p-1", *got.PartnershipID)
	assert.JSONEq(t, `{"attempts":3}`, string(got.Extra))

	assert.Contains(t, out.String(), "join ok")
	assert.Contains(t, out.String(), "partner link incomplete")
}

func TestPGHandlerStopIsIdempotent(t *testing.T) {
	pg := NewPGHandler(newTestDB(t), time.Hour)
	pg.Stop()
	pg.Stop()
}

func TestPurgeOlderThan(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&[]models.SystemLog{
		{Timestamp: time.Now().AddDate(0, 0, -40), Level: "ERROR", Message: "old"},
		{Timestamp: time.Now(), Level: "ERROR", Message: "new"},
	}).Error)

	deleted, err := PurgeOlderThan(db, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var left []models.SystemLog
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].Message)
}

func TestRecentFiltersAndPages(t *testing.T) {
	db := newTestDB(t)
	user := "u-7"
	now := time.Now()
	require.NoError(t, db.Create(&[]models.SystemLog{
		{Timestamp: now.Add(-3 * time.Minute), Level: "ERROR", Message: "first", UserID: &user},
		{Timestamp: now.Add(-2 * time.Minute), Level: "WARN", Message: "second"},
		{Timestamp: now.Add(-1 * time.Minute), Level: "ERROR", Message: "third", UserID: &user},
	}).Error)

	logs, total, err := Recent(context.Background(), db, LogFilter{Level: "ERROR", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "third", logs[0].Message)

	logs, total, err = Recent(context.Background(), db, LogFilter{UserID: user, Limit: 10, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "first", logs[0].Message)
}
