package wdi

import (
	"testing"
)

func TestDecodePage(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMeta    PageMeta
		wantRecords int
		wantErr     bool
	}{
		{
			name:        "full envelope",
			body:        `[{"page":2,"pages":3,"per_page":50,"total":120},[{"id":"a"},{"id":"b"}]]`,
			wantMeta:    PageMeta{Page: 2, Pages: 3, PerPage: 50, Total: 120},
			wantRecords: 2,
		},
		{
			name:        "missing pages defaults to one",
			body:        `[{"page":1,"per_page":50,"total":10},[{"id":"a"}]]`,
			wantMeta:    PageMeta{Page: 1, Pages: 1, PerPage: 50, Total: 10},
			wantRecords: 1,
		},
		{
			name:        "string per_page",
			body:        `[{"page":1,"pages":1,"per_page":"50","total":7},[]]`,
			wantMeta:    PageMeta{Page: 1, Pages: 1, PerPage: 50, Total: 7},
			wantRecords: 0,
		},
		{
			name:        "metadata only",
			body:        `[{"page":1,"pages":1,"per_page":50,"total":0}]`,
			wantMeta:    PageMeta{Page: 1, Pages: 1, PerPage: 50, Total: 0},
			wantRecords: 0,
		},
		{
			name:        "null records",
			body:        `[{"page":1,"pages":1,"per_page":50,"total":0},null]`,
			wantMeta:    PageMeta{Page: 1, Pages: 1, PerPage: 50, Total: 0},
			wantRecords: 0,
		},
		{
			name:    "empty array",
			body:    `[]`,
			wantErr: true,
		},
		{
			name:    "not an array",
			body:    `{"message":"error"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			body:    `[{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, records, err := DecodePage([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePage() error = %v", err)
			}
			if meta != tt.wantMeta {
				t.Errorf("meta = %+v, want %+v", meta, tt.wantMeta)
			}
			if len(records) != tt.wantRecords {
				t.Errorf("records = %d, want %d", len(records), tt.wantRecords)
			}
		})
	}
}
