package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dairymart/dairymart-backend/pkg/logger"
)

func TestQueryLoggerReportsOnlySlowOrFailedStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	ql := newQueryLogger(logger.New(logger.Options{ServiceName: "test", Output: buf}))
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(ctx, time.Now(), stmt, nil)
	ql.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	ql.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "db.slow_query")

	buf.Reset()
	ql.Trace(ctx, time.Now(), stmt, errors.New("relation does not exist"))
	assert.Contains(t, buf.String(), "db.query_failed")
	assert.True(t, strings.Contains(buf.String(), "relation does not exist"))

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Empty(t, buf.String())
}

func TestQueryLoggerWithoutLoggerDiscards(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, newQueryLogger(nil))
}
