package repository

import (
	"strings"
	"testing"
)

func TestBuildKeywordConditionByDialect(t *testing.T) {
	condition, argCount := buildKeywordConditionByDialect("sqlite", []string{"receipt_no", " ", "description"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != `(receipt_no LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')` {
		t.Fatalf("unexpected sqlite condition: %s", condition)
	}

	condition, _ = buildKeywordConditionByDialect("postgres", []string{"area"})
	if !strings.Contains(condition, "area ILIKE ? ESCAPE") {
		t.Fatalf("postgres condition should use ILIKE, got %s", condition)
	}

	if condition, argCount := buildKeywordCondition(nil, nil); condition != "" || argCount != 0 {
		t.Fatalf("empty columns should produce no condition, got %q/%d", condition, argCount)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escape result: %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
