package index

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func benchDB(b *testing.B) *DB {
	b.Helper()
	db, err := Open(b.TempDir(), false)
	if err != nil {
		b.Fatalf("Open() failed: %v", err)
	}
	b.Cleanup(func() { _ = db.Close() })
	return db
}

func benchRecord(i int) *SyncRecord {
	return &SyncRecord{
		RemoteID:     fmt.Sprintf("bench-%d", i),
		Path:         "2021/06",
		FileName:     fmt.Sprintf("IMG_%04d.jpg", i),
		OrigFileName: fmt.Sprintf("IMG_%04d.jpg", i),
		MediaType:    MediaTypeDrive,
		FileSize:     1 << 20,
		ModifyDate:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		CreateDate:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		SyncDate:     time.Now().UTC(),
	}
}

func BenchmarkPutSynced(b *testing.B) {
	db := benchDB(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := db.PutSynced(ctx, benchRecord(i)); err != nil {
			b.Fatalf("PutSynced() failed: %v", err)
		}
	}
}

func BenchmarkGetByRemoteID(b *testing.B) {
	db := benchDB(b)
	ctx := context.Background()

	const n = 1000
	for i := 0; i < n; i++ {
		if _, err := db.PutSynced(ctx, benchRecord(i)); err != nil {
			b.Fatalf("PutSynced() failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec, err := db.GetByRemoteID(ctx, fmt.Sprintf("bench-%d", i%n))
		if err != nil {
			b.Fatalf("GetByRemoteID() failed: %v", err)
		}
		if rec == nil {
			b.Fatal("seeded record missing")
		}
	}
}

func BenchmarkSearch(b *testing.B) {
	db := benchDB(b)
	ctx := context.Background()

	const n = 1000
	for i := 0; i < n; i++ {
		if _, err := db.PutSynced(ctx, benchRecord(i)); err != nil {
			b.Fatalf("PutSynced() failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cur, err := db.Search(ctx, SearchOptions{RemoteID: "bench-1*"})
		if err != nil {
			b.Fatalf("Search() failed: %v", err)
		}
		count := 0
		for cur.Next() {
			count++
		}
		if err := cur.Err(); err != nil {
			b.Fatalf("cursor error: %v", err)
		}
		cur.Close()
		if count == 0 {
			b.Fatal("search returned no rows")
		}
	}
}
