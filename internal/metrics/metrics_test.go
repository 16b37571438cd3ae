package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFetch(t *testing.T) {
	ok := testutil.ToFloat64(FetchTotal.WithLabelValues("dex", "ok"))
	failed := testutil.ToFloat64(FetchTotal.WithLabelValues("dex", "error"))

	RecordFetch("dex", nil, 0.2)
	RecordFetch("dex", errors.New("timeout"), 10)

	assert.Equal(t, ok+1, testutil.ToFloat64(FetchTotal.WithLabelValues("dex", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(FetchTotal.WithLabelValues("dex", "error")))
}

func TestRecordAlert(t *testing.T) {
	before := testutil.ToFloat64(AlertsTotal.WithLabelValues("slack", "error"))
	RecordAlert("slack", errors.New("status 500"))
	assert.Equal(t, before+1, testutil.ToFloat64(AlertsTotal.WithLabelValues("slack", "error")))
}
