package main

import (
	"strings"
	"testing"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/filterexpr"
	"github.com/pcidash/pcidash/pkg/loader"
)

func loadDemo(t *testing.T) *loader.DataSet {
	t.Helper()
	ds, err := loader.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	return ds
}

func TestCriteriaFromFlags(t *testing.T) {
	ds := loadDemo(t)

	tests := []struct {
		name        string
		requirement string
		severity    string
		status      string
		want        aggregate.Criteria
		wantErr     string
	}{
		{name: "empty", want: aggregate.Criteria{}},
		{
			name:        "all three",
			requirement: "Req 7",
			severity:    "critical",
			status:      "open",
			want:        aggregate.Criteria{RequirementID: "Req 7", Severity: "critical", Status: "open"},
		},
		{name: "severity case folds", severity: "CRITICAL", want: aggregate.Criteria{Severity: "critical"}},
		{name: "status case folds", status: "Remediated", want: aggregate.Criteria{Status: "remediated"}},
		{name: "unknown severity", severity: "catastrophic", wantErr: "unknown severity"},
		{name: "unknown status", status: "closed", wantErr: "unknown status"},
		{name: "unknown requirement", requirement: "Req 99", wantErr: "unknown requirement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := criteriaFromFlags(ds, tt.requirement, tt.severity, tt.status)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("criteria = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCriteriaFromFlagsListsCatalog(t *testing.T) {
	ds := loadDemo(t)

	_, err := criteriaFromFlags(ds, "Req 99", "", "")
	if err == nil {
		t.Fatal("expected an error for an unknown requirement")
	}
	if !strings.Contains(err.Error(), "Req 1") {
		t.Errorf("error should list the available ids: %v", err)
	}
}

func TestDescribeFilter(t *testing.T) {
	if got := describeFilter(aggregate.Criteria{}, nil); got != "none" {
		t.Errorf("empty filter = %q, want none", got)
	}

	c := aggregate.Criteria{RequirementID: "Req 7", Severity: "high", Status: "open"}
	got := describeFilter(c, nil)
	for _, want := range []string{"requirement=Req 7", "severity=high", "status=open"} {
		if !strings.Contains(got, want) {
			t.Errorf("describeFilter = %q, missing %q", got, want)
		}
	}
}

func TestDescribeFilterIncludesExpression(t *testing.T) {
	e, err := filterexpr.Compile(`severity == "critical"`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	got := describeFilter(aggregate.Criteria{}, e)
	if !strings.Contains(got, `severity == "critical"`) {
		t.Errorf("describeFilter = %q, missing the expression source", got)
	}
}
