package app

import "testing"

func TestGroupNotes_GroupsAndSorts(t *testing.T) {
	groups := GroupNotes([]NoteInput{
		{DestDir: "/b/2025_04_13", FolderDate: "2025_04_13", FileName: "x.mp4", Note: "x"},
		{DestDir: "/a/2025_04_12", FolderDate: "2025_04_12", FileName: "b.mp4", Note: "two"},
		{DestDir: "/a/2025_04_12", FolderDate: "2025_04_12", FileName: "a.mp4", Note: "one"},
	})

	if len(groups) != 2 {
		t.Fatalf("期望 2 组，实际 %d", len(groups))
	}
	if groups[0].Dir != "/a/2025_04_12" {
		t.Fatalf("组未按目录排序：%q", groups[0].Dir)
	}
	if len(groups[0].Entries) != 2 || groups[0].Entries[0].FileName != "a.mp4" {
		t.Fatalf("组内未按文件名排序：%+v", groups[0].Entries)
	}
}

func TestGroupNotes_DropsUnusable(t *testing.T) {
	groups := GroupNotes([]NoteInput{
		{DestDir: "/a/2025_04_12", FolderDate: "2025_04_12", FileName: "a.mp4", Note: ""},
		{DestDir: "/a/Misc", FolderDate: "", FileName: "b.mp4", Note: "desc"},
		{DestDir: "", FolderDate: "2025_04_12", FileName: "c.mp4", Note: "desc"},
	})
	if len(groups) != 0 {
		t.Fatalf("不可写条目应被丢弃：%+v", groups)
	}
}
