package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionJobSummaryReport(t *testing.T) {
	t.Run("completed run", func(t *testing.T) {
		summary := &DeletionJobSummary{
			Total:     2,
			Succeeded: 1,
			Failed:    1,
			Failures:  []DeletionFailure{{RequestID: "req-1", Error: "boom"}},
			Duration:  1500 * time.Millisecond,
		}

		assert.Equal(t, DeletionJobReport{
			Success:   true,
			Total:     2,
			Succeeded: 1,
			Failed:    1,
			Errors:    []DeletionFailure{{RequestID: "req-1", Error: "boom"}},
			Duration:  "1.5s",
		}, summary.Report())
	})

	t.Run("skipped run encodes an empty error list", func(t *testing.T) {
		raw, err := json.Marshal((&DeletionJobSummary{Skipped: true}).Report())
		require.NoError(t, err)

		assert.JSONEq(t, `{"success":true,"skipped":true,"total":0,"exitosas":0,"fallidas":0,"errores":[],"duracion":"0s"}`, string(raw))
	})
}
