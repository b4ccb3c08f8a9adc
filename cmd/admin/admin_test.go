package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cv-bot/internal/models"
)

func runAdminIn(t *testing.T, dir string, args ...string) string {
	t.Helper()
	viper.Reset()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", dir + "/missing.yaml", "--payment-dir", dir, "--yes"}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestPaymentCommands(t *testing.T) {
	dir := t.TempDir()

	assert.Contains(t, runAdminIn(t, dir, "status"), "payment_required=false")
	assert.Contains(t, runAdminIn(t, dir, "enable"), "payment requirement enabled")
	assert.Contains(t, runAdminIn(t, dir, "status"), "payment_required=true")

	assert.Contains(t, runAdminIn(t, dir, "mark-paid", "42"), "marked paid: 42")
	assert.Contains(t, runAdminIn(t, dir, "mark-paid", "42"), "already paid: 42")
	assert.Equal(t, "42\n", runAdminIn(t, dir, "list-paid"))

	assert.Contains(t, runAdminIn(t, dir, "mark-unpaid", "42"), "marked unpaid: 42")
	assert.Contains(t, runAdminIn(t, dir, "list-paid"), "(no paid users)")
	assert.Contains(t, runAdminIn(t, dir, "disable"), "payment requirement disabled")
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{arg: "123", want: 123},
		{arg: "abc", wantErr: true},
		{arg: "-5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseUserID(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteReport(t *testing.T) {
	rating := 5
	comment := "great"
	avg := 4.5
	r := &report{
		Active:   []models.ActiveUser{{UserID: 1, Username: "ann", ActionCount: 12}},
		Feedback: []models.Feedback{{Username: "ann", Rating: &rating, Comments: &comment, Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}},
		Funnel:   &models.Funnel{Started: 10, CompletedProfile: 6, GeneratedCV: 4},
		Daily:    []models.DailyActive{{Day: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Users: 3}},
		Stats:    &models.FeedbackStats{Total: 2, AverageRating: &avg, WithComments: 1},
	}

	var out bytes.Buffer
	require.NoError(t, writeReport(&out, r))
	text := out.String()

	for _, want := range []string{"=== Most Active Users ===", "ann", "2024-05-01 10:00:00", "Generated CV", "2024-05-01", "4.50"} {
		assert.Contains(t, text, want)
	}
	assert.True(t, strings.Index(text, "Most Active") < strings.Index(text, "Recent Feedback"))
}

func TestAnalyticsNeedsDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	viper.Reset()
	rootCmd.SetArgs([]string{"--config", t.TempDir() + "/missing.yaml", "ping-db"})
	assert.Error(t, rootCmd.Execute())
}
