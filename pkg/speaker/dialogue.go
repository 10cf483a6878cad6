package speaker

import (
	"regexp"
	"strings"
)

// speakerTag accepts "SPEAKER_00: ...", "Speaker 1 - ...", optionally after a "[00:12]" timestamp.
var speakerTag = regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)?(?i:speaker)[ _]?(\d+)\s*[:：\-–—]\s*(.*)$`)

// ParseDialogue splits a dialogue protocol into tagged lines. Untagged lines
// continue the previous utterance; untagged text before the first tag is dropped.
func ParseDialogue(protocol string) []Line {
	protocol = strings.ReplaceAll(protocol, "\r\n", "\n")

	lines := make([]Line, 0)
	for _, raw := range strings.Split(protocol, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		if m := speakerTag.FindStringSubmatch(text); m != nil {
			lines = append(lines, Line{
				SpeakerID: normalizeID(m[1]),
				Text:      strings.TrimSpace(m[2]),
			})
			continue
		}

		if len(lines) == 0 {
			continue
		}
		last := &lines[len(lines)-1]
		if last.Text == "" {
			last.Text = text
		} else {
			last.Text += " " + text
		}
	}
	return lines
}

// normalizeID renders the numeric part as SPEAKER_NN, keeping at least two digits.
func normalizeID(digits string) string {
	if len(digits) < 2 {
		digits = "0" + digits
	}
	return "SPEAKER_" + digits
}
