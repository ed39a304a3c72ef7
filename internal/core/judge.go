package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// scoreLine matches one "Name's Score: N" verdict line. The judge's output
// is free-form text, so parsing stays deliberately loose about spacing,
// casing and apostrophe variants.
var scoreLine = regexp.MustCompile(`(?i)^\s*(.+?)['\x{2019}]s\s+score\s*:\s*(\d+)`)

// explanationLine matches the "Explanation: ..." line that follows a score.
var explanationLine = regexp.MustCompile(`(?i)^\s*explanation\s*:\s*(.*)`)

// ParseJudgement extracts the per-speaker scores from a verdict text and
// picks the winner. Scores keep their order of appearance; on a tie the
// first-scored speaker wins. Returns nil when no score line parses.
func ParseJudgement(text string) *JudgementData {
	var scores []SpeakerScore

	for _, line := range strings.Split(text, "\n") {
		if m := scoreLine.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			scores = append(scores, SpeakerScore{Speaker: strings.TrimSpace(m[1]), Score: n})
			continue
		}
		if m := explanationLine.FindStringSubmatch(line); m != nil && len(scores) > 0 {
			last := &scores[len(scores)-1]
			if last.Explanation == "" {
				last.Explanation = strings.TrimSpace(m[1])
			}
		}
	}

	if len(scores) == 0 {
		return nil
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	return &JudgementData{
		Winner:      best.Speaker,
		Score:       best.Score,
		Explanation: best.Explanation,
		Scores:      scores,
	}
}

// judgePrompt frames the debate transcript for verdict generation. The
// requested output format is the one ParseJudgement understands.
func judgePrompt(room *Room) (system, transcript string) {
	var names []string
	for _, seat := range room.seats {
		if seat != nil {
			names = append(names, seat.Name)
		}
	}

	var sb strings.Builder
	sb.WriteString("You are the judge of a courtroom debate")
	if room.Topic != "" {
		sb.WriteString(" on the topic: ")
		sb.WriteString(room.Topic)
	}
	sb.WriteString(". Score each speaker from 0 to 5 on argument quality. ")
	sb.WriteString("For every speaker output exactly two lines:\n")
	sb.WriteString("<name>'s Score: <number>\nExplanation: <one sentence>\n")
	if len(names) > 0 {
		sb.WriteString("The speakers are: ")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(".")
	}
	system = sb.String()

	var tr strings.Builder
	tr.WriteString("Transcript:\n")
	for _, entry := range room.chat.ChatLog {
		fmt.Fprintf(&tr, "%s: %s\n", entry.User, entry.Message)
	}
	transcript = tr.String()
	return system, transcript
}
