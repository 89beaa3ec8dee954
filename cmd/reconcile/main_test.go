package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/albumduel/albumduel-server/internal/service"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		report *service.ReconcileReport
		err    error
		want   int
	}{
		{name: "clean pass", report: &service.ReconcileReport{GroupsExamined: 3}, want: 0},
		{name: "failed groups", report: &service.ReconcileReport{FailedGroups: 1}, want: 2},
		{name: "interrupted pass", report: &service.ReconcileReport{GroupsExamined: 1}, err: context.Canceled, want: 1},
		{name: "interrupted with failures", report: &service.ReconcileReport{FailedGroups: 2}, err: context.Canceled, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.report, tt.err))
		})
	}
}
