package core

import (
	"regexp"
	"testing"
	"time"
)

func TestBatchIDs(t *testing.T) {
	now := time.UnixMilli(1717243200000)

	if got := RequestBatchID(now); got != "bulk_import_batch_1717243200000" {
		t.Errorf("RequestBatchID() = %q", got)
	}

	local := regexp.MustCompile(`^bulk_import_vaccination_1717243200000_[0-9a-f]{8}$`)
	a := LocalBatchID(TableVaccination, now)
	b := LocalBatchID(TableVaccination, now)
	if !local.MatchString(a) {
		t.Errorf("LocalBatchID() = %q, want match %s", a, local)
	}
	if a == b {
		t.Errorf("LocalBatchID() returned %q twice", a)
	}
}
