package core

import "testing"

func TestParseJudgementPicksHighestScore(t *testing.T) {
	text := `The court has reached a verdict.

Alice's Score: 4
Explanation: Sharp rebuttals and consistent evidence.

Bob's Score: 2
Explanation: Lost the thread after the first objection.`

	verdict := ParseJudgement(text)
	if verdict == nil {
		t.Fatal("expected a parsed verdict")
	}
	if verdict.Winner != "Alice" || verdict.Score != 4 {
		t.Fatalf("expected Alice with 4, got %+v", verdict)
	}
	if len(verdict.Scores) != 2 {
		t.Fatalf("expected 2 score blocks, got %+v", verdict.Scores)
	}
	if verdict.Explanation != "Sharp rebuttals and consistent evidence." {
		t.Fatalf("unexpected explanation: %q", verdict.Explanation)
	}
	if verdict.Scores[1].Speaker != "Bob" || verdict.Scores[1].Score != 2 {
		t.Fatalf("unexpected second block: %+v", verdict.Scores[1])
	}
}

func TestParseJudgementTieKeepsFirstSeen(t *testing.T) {
	text := "Bob's Score: 3\nExplanation: solid\nAlice's Score: 3\nExplanation: also solid"

	verdict := ParseJudgement(text)
	if verdict == nil {
		t.Fatal("expected a parsed verdict")
	}
	if verdict.Winner != "Bob" {
		t.Fatalf("tie must keep the first-scored speaker, got %q", verdict.Winner)
	}
}

func TestParseJudgementToleratesNoise(t *testing.T) {
	text := "Honestly both were great!\n\nalice's score: 5\nsome filler line\nExplanation: flawless"

	verdict := ParseJudgement(text)
	if verdict == nil {
		t.Fatal("expected a parsed verdict")
	}
	if verdict.Winner != "alice" || verdict.Score != 5 || verdict.Explanation != "flawless" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestParseJudgementRejectsGarbage(t *testing.T) {
	if v := ParseJudgement("the dog ate the transcript"); v != nil {
		t.Fatalf("expected nil verdict, got %+v", v)
	}
}
