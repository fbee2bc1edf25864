package models

import "testing"

func TestAllModelsReturnsBothRecordTypes(t *testing.T) {
	all := AllModels()
	if len(all) != 2 {
		t.Fatalf("AllModels returned %d entries, want 2", len(all))
	}
	if _, ok := all[0].(*AdminUser); !ok {
		t.Errorf("AllModels[0] = %T, want *AdminUser", all[0])
	}
	if _, ok := all[1].(*BackupRecord); !ok {
		t.Errorf("AllModels[1] = %T, want *BackupRecord", all[1])
	}
}
