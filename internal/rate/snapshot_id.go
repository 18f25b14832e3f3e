package rate

import "time"

// Fixed-width layout with microseconds: ids sort lexicographically by capture
// time and two syncs within the same second still get distinct ids.
const snapshotIDLayout = "20060102-150405.000000"

func SnapshotIDAt(t time.Time) string {
	return t.UTC().Format(snapshotIDLayout) + "UTC"
}
