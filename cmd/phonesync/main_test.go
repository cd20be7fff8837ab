package main

import "testing"

func TestParseRunArgs(t *testing.T) {
	ra, err := parseRunArgs([]string{"conf/custom.yaml", "--apply", "--analyze=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.ConfigPath != "conf/custom.yaml" {
		t.Fatalf("配置路径解析异常：%q", ra.ConfigPath)
	}
	if !ra.Apply || !ra.ApplySet {
		t.Fatalf("--apply 解析异常：%+v", ra)
	}
	if ra.Analyze || !ra.AnalyzeSet {
		t.Fatalf("--analyze=false 解析异常：%+v", ra)
	}
}

func TestParseRunArgs_Errors(t *testing.T) {
	if _, err := parseRunArgs([]string{"--apply=maybe"}); err == nil {
		t.Fatalf("期望非法布尔值报错")
	}
	if _, err := parseRunArgs([]string{"--unknown"}); err == nil {
		t.Fatalf("期望未知参数报错")
	}
	if _, err := parseRunArgs([]string{"a.yaml", "b.yaml"}); err == nil {
		t.Fatalf("期望重复配置路径报错")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello..." {
		t.Fatalf("期望 hello...，实际 %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("不应截断：%q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(3661e9); got != "01:01:01" {
		t.Fatalf("期望 01:01:01，实际 %q", got)
	}
	if got := formatElapsed(-5); got != "00:00:00" {
		t.Fatalf("负值应归零：%q", got)
	}
}
