package rank

import "testing"

func TestBuildMatchExpr_BoostsIdentifierTokensWithFilenameClause(t *testing.T) {
	got := BuildMatchExpr("paint widget")
	want := "(paint OR filename:paint) AND (widget OR filename:widget)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildMatchExpr_PassesPhraseAndPrefixTokensVerbatim(t *testing.T) {
	got := BuildMatchExpr(`"exact phrase" pref*`)
	want := `"exact phrase" AND pref*`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildMatchExpr_EmptyQueryReturnsEmptyExpr(t *testing.T) {
	if got := BuildMatchExpr("   "); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
