package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerConfig_Enabled(t *testing.T) {
	tests := []struct {
		name   string
		config SchedulerConfig
		want   bool
	}{
		{name: "zero", config: SchedulerConfig{}, want: false},
		{name: "no owners", config: SchedulerConfig{Interval: time.Hour}, want: false},
		{name: "no interval", config: SchedulerConfig{Owners: []Owner{"alice"}}, want: false},
		{name: "blank owners", config: SchedulerConfig{Interval: time.Hour, Owners: []Owner{" "}}, want: false},
		{name: "enabled", config: SchedulerConfig{Interval: time.Hour, Owners: []Owner{"alice"}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.Enabled())
		})
	}
}

func TestScheduledTask_Due(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&ScheduledTask{}).Due(now))
	assert.True(t, (&ScheduledTask{NextRun: now}).Due(now))
	assert.True(t, (&ScheduledTask{NextRun: now.Add(-time.Second)}).Due(now))
	assert.False(t, (&ScheduledTask{NextRun: now.Add(time.Second)}).Due(now))
}

func TestReindexTaskID(t *testing.T) {
	assert.Equal(t, "reindex:alice", ReindexTaskID("alice"))
}
