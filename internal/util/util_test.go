package util

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"vLLM:A100":       "vllm_a100",
		"  Friendli  ":    "friendli",
		"Engine--Two!!":   "engine-two",
		"__Mixed__Case__": "mixed__case",
	}
	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Fatalf("Slugify(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("short", 10); got != "short" {
		t.Fatalf("TruncateRunes short = %q", got)
	}
	if got := TruncateRunes("connection reset by peer", 10); got != "connection…" {
		t.Fatalf("TruncateRunes long = %q", got)
	}
	if got := TruncateRunes("héllo wörld", 5); got != "héllo…" {
		t.Fatalf("TruncateRunes unicode = %q", got)
	}
}
