package index

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestFolderPath_RoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	_, ok, err := db.FolderPath(ctx, "f1")
	if err != nil {
		t.Fatalf("FolderPath() failed: %v", err)
	}
	if ok {
		t.Error("FolderPath() found an unknown folder")
	}

	if err := db.PutFolder(ctx, "f1", "root", "Holidays", "/Holidays"); err != nil {
		t.Fatalf("PutFolder() failed: %v", err)
	}
	path, ok, err := db.FolderPath(ctx, "f1")
	if err != nil {
		t.Fatalf("FolderPath() failed: %v", err)
	}
	if !ok || path != "/Holidays" {
		t.Errorf("FolderPath() = (%q, %v), want (/Holidays, true)", path, ok)
	}

	// Upsert refreshes the cached path.
	if err := db.PutFolder(ctx, "f1", "root", "Holidays", "/Travel/Holidays"); err != nil {
		t.Fatalf("PutFolder() upsert failed: %v", err)
	}
	path, _, err = db.FolderPath(ctx, "f1")
	if err != nil {
		t.Fatalf("FolderPath() failed: %v", err)
	}
	if path != "/Travel/Holidays" {
		t.Errorf("FolderPath() after upsert = %q, want /Travel/Holidays", path)
	}
}

// TestUpdateFolderPath_Cascade verifies the one-level-at-a-time cascade: the
// parent update returns both children, and re-invoking at each child updates
// the grandchildren.
func TestUpdateFolderPath_Cascade(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	if err := db.PutFolder(ctx, "parent", "root", "A", "/A"); err != nil {
		t.Fatalf("PutFolder() failed: %v", err)
	}
	if err := db.PutFolder(ctx, "c1", "parent", "one", "/A/one"); err != nil {
		t.Fatalf("PutFolder() failed: %v", err)
	}
	if err := db.PutFolder(ctx, "c2", "parent", "two", "/A/two"); err != nil {
		t.Fatalf("PutFolder() failed: %v", err)
	}
	if err := db.PutFolder(ctx, "g1", "c1", "deep", "/A/one/deep"); err != nil {
		t.Fatalf("PutFolder() failed: %v", err)
	}

	children, err := db.UpdateFolderPath(ctx, "/A-renamed", "parent")
	if err != nil {
		t.Fatalf("UpdateFolderPath() failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("UpdateFolderPath() returned %d children, want 2", len(children))
	}
	var names []string
	for _, child := range children {
		names = append(names, child.Name)
	}
	sort.Strings(names)
	if names[0] != "one" || names[1] != "two" {
		t.Errorf("children = %v, want [one two]", names)
	}

	path, _, err := db.FolderPath(ctx, "parent")
	if err != nil {
		t.Fatalf("FolderPath(parent) failed: %v", err)
	}
	if path != "/A-renamed" {
		t.Errorf("FolderPath(parent) = %q, want /A-renamed", path)
	}

	// Second invocation at a child propagates one more level.
	grandchildren, err := db.UpdateFolderPath(ctx, "/A-renamed/one", "c1")
	if err != nil {
		t.Fatalf("UpdateFolderPath(c1) failed: %v", err)
	}
	if len(grandchildren) != 1 || grandchildren[0].ID != "g1" {
		t.Errorf("grandchildren = %v, want [g1]", grandchildren)
	}
	path, _, err = db.FolderPath(ctx, "c1")
	if err != nil {
		t.Fatalf("FolderPath(c1) failed: %v", err)
	}
	if path != "/A-renamed/one" {
		t.Errorf("FolderPath(c1) = %q, want /A-renamed/one", path)
	}

	// A third invocation finishes the branch.
	if _, err := db.UpdateFolderPath(ctx, "/A-renamed/one/deep", "g1"); err != nil {
		t.Fatalf("UpdateFolderPath(g1) failed: %v", err)
	}
	path, _, err = db.FolderPath(ctx, "g1")
	if err != nil {
		t.Fatalf("FolderPath(g1) failed: %v", err)
	}
	if path != "/A-renamed/one/deep" {
		t.Errorf("FolderPath(g1) = %q, want /A-renamed/one/deep", path)
	}
}

func TestAlbums_UpsertAndMembership(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	album := &Album{
		ID:        "a1",
		Name:      "Summer",
		StartDate: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2021, 8, 31, 0, 0, 0, 0, time.UTC),
		SyncDate:  time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.PutAlbum(ctx, album); err != nil {
		t.Fatalf("PutAlbum() failed: %v", err)
	}

	album.Name = "Summer 2021"
	if err := db.PutAlbum(ctx, album); err != nil {
		t.Fatalf("PutAlbum() upsert failed: %v", err)
	}

	got, err := db.GetAlbum(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAlbum() failed: %v", err)
	}
	if got == nil || got.Name != "Summer 2021" {
		t.Errorf("GetAlbum() = %+v, want updated name", got)
	}

	rowID, err := db.Put(ctx, testRecord("r1"))
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := db.PutAlbumFile(ctx, "a1", rowID); err != nil {
		t.Fatalf("PutAlbumFile() failed: %v", err)
	}
	// Membership upsert is idempotent.
	if err := db.PutAlbumFile(ctx, "a1", rowID); err != nil {
		t.Fatalf("repeat PutAlbumFile() failed: %v", err)
	}

	entries, err := db.AlbumFiles(ctx, "a1")
	if err != nil {
		t.Fatalf("AlbumFiles() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("AlbumFiles() returned %d entries, want 1", len(entries))
	}
	if entries[0].AlbumName != "Summer 2021" || entries[0].FileName != "IMG_0001.jpg" {
		t.Errorf("entry = %+v, want album/file join", entries[0])
	}
}

func TestGetAlbum_Absent(t *testing.T) {
	db, _ := openTestDB(t)

	album, err := db.GetAlbum(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAlbum() failed: %v", err)
	}
	if album != nil {
		t.Errorf("GetAlbum() = %+v, want nil", album)
	}
}
