package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeCSV writes lines to a catalog file under dir and returns its path.
func writeCSV(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			t.Fatalf("failed to write line: %v", err)
		}
	}
	return path
}

func TestLoad_ResolvesPaths(t *testing.T) {
	tmp := t.TempDir()
	csvPath := writeCSV(t, tmp, "train.csv", []string{
		"1,frames/01/00001.jpg",
		"1,frames/01/00002.jpg",
		"2,frames/02/00001.jpg",
	})

	cat, err := Load("/data", csvPath, PairSchema(), false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", cat.Len())
	}
	if got := cat.Identity(2); got != "2" {
		t.Fatalf("Identity(2) = %q, want %q", got, "2")
	}

	rel, ok := cat.Get("relative_file_path_", 0)
	if !ok || rel != "frames/01/00001.jpg" {
		t.Fatalf("relative path column wrong: %q (ok=%v)", rel, ok)
	}
	abs, err := cat.Path("file_path_", 0)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	want := filepath.Join("/data", "frames/01/00001.jpg")
	if abs != want {
		t.Fatalf("resolved path = %q, want %q", abs, want)
	}
}

func TestLoad_ExtraColumnsIgnored(t *testing.T) {
	tmp := t.TempDir()
	csvPath := writeCSV(t, tmp, "train.csv", []string{
		"1,frames/a.jpg,unused",
		"1,frames/b.jpg,unused",
	})

	cat, err := Load(tmp, csvPath, PairSchema(), false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", cat.Len())
	}
	if _, ok := cat.Get("unused", 0); ok {
		t.Fatal("extra column should not be stored")
	}
}

func TestLoad_ShortRowFails(t *testing.T) {
	tmp := t.TempDir()
	csvPath := writeCSV(t, tmp, "train.csv", []string{
		"1,frames/a.jpg,mask/a.png",
		"1,frames/b.jpg", // missing mask column
	})

	_, err := Load(tmp, csvPath, MaskSchema(), false)
	if err == nil {
		t.Fatal("expected error for short row")
	}
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(t.TempDir(), "no/such/file.csv", PairSchema(), false)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for missing file, got %v", err)
	}
}

func TestLoad_HeaderInference(t *testing.T) {
	tmp := t.TempDir()
	csvPath := writeCSV(t, tmp, "train.csv", []string{
		"character_id,relative_file_path_,camera",
		"7,frames/a.jpg,left",
		"7,frames/b.jpg,right",
	})

	cat, err := Load("/data", csvPath, nil, true)
	if err != nil {
		t.Fatalf("Load with inferred header failed: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected 2 data rows, got %d", cat.Len())
	}
	if got := cat.Identity(0); got != "7" {
		t.Fatalf("Identity(0) = %q, want %q", got, "7")
	}
	abs, err := cat.Path("file_path_", 1)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if abs != filepath.Join("/data", "frames/b.jpg") {
		t.Fatalf("unexpected resolved path %q", abs)
	}
	// Passthrough column from the header survives verbatim.
	cam, ok := cat.Get("camera", 1)
	if !ok || cam != "right" {
		t.Fatalf("passthrough column wrong: %q (ok=%v)", cam, ok)
	}
}

func TestLoad_NoSchemaNoHeaderFails(t *testing.T) {
	tmp := t.TempDir()
	csvPath := writeCSV(t, tmp, "train.csv", []string{"1,frames/a.jpg"})

	_, err := Load(tmp, csvPath, nil, false)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestLoad_ExplicitSchemaSkipsHeader(t *testing.T) {
	tmp := t.TempDir()
	csvPath := writeCSV(t, tmp, "train.csv", []string{
		"character_id,relative_file_path_",
		"3,frames/a.jpg",
	})

	cat, err := Load(tmp, csvPath, PairSchema(), true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("expected 1 data row, got %d", cat.Len())
	}
	if got := cat.Identity(0); got != "3" {
		t.Fatalf("Identity(0) = %q, want %q", got, "3")
	}
}

func TestInferRoles(t *testing.T) {
	s := InferRoles([]string{"character_id", "relative_file_path_", "note"})
	wantRoles := []Role{RoleIdentity, RolePath, RolePassthrough}
	for i, col := range s {
		if col.Role != wantRoles[i] {
			t.Fatalf("column %q role = %v, want %v", col.Name, col.Role, wantRoles[i])
		}
	}
}

func TestValidateSchema_NoIdentity(t *testing.T) {
	s := Schema{{Name: "a"}, {Name: "b", Role: RolePath}}
	tmp := t.TempDir()
	csvPath := writeCSV(t, tmp, "train.csv", []string{"x,y"})
	_, err := Load(tmp, csvPath, s, false)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for schema without identity column, got %v", err)
	}
}
