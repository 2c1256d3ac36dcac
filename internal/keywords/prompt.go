package keywords

import (
	"strings"

	"factreel/internal/captions"
)

// SystemPrompt is the fixed instruction block sent with every keyword request.
const SystemPrompt = `# Instructions

You receive a short video script and its timed captions. For every time segment,
return three visually concrete keywords that can be used to search a stock video
library for background footage. Keywords are short and capture what the viewer
should see while that caption plays; synonyms and closely related terms are fine.

Rules:
- Segments must be strictly consecutive, start at 0 and end exactly at the end
  time of the last caption. Copy caption boundaries verbatim where they apply.
- Each segment should last roughly 2 to 4 seconds. Split a caption that carries
  two or more distinct ideas into shorter segments.
- When a caption is vague, use the following caption for context.
- Prefer two-word keywords over single words when it makes them more visual.
- English only. Every keyword must depict something visible:
  'crying child' is good, 'emotional moment' is not.
- Return exactly three strings per segment.

Output only JSON, no commentary, in this exact shape:
[[[t1, t2], ["keyword1", "keyword2", "keyword3"]], [[t2, t3], ["keyword4", "keyword5", "keyword6"]]]

Example: for the caption 'The cheetah is the fastest land animal' good keywords
are "cheetah running", "fastest animal" and "savanna chase".`

// BuildUserPrompt renders the script and captions into the user message.
func BuildUserPrompt(script string, caps []captions.Caption) string {
	var b strings.Builder
	b.WriteString("Script: ")
	b.WriteString(strings.TrimSpace(script))
	b.WriteString("\n\nTimed Captions:\n")
	b.WriteString(captions.PromptLines(caps))
	return b.String()
}
