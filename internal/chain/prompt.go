package chain

import (
	"fmt"
	"strings"

	"github.com/sgsarchives/headmasterd/internal/persona"
)

// renderPrompt splices the persona profile, the two memory blocks and the
// new input into the conversation template. The current-conversation and
// historical-context blocks stay separate placeholders; they must never be
// folded into one.
func renderPrompt(p persona.Persona, vars memoryVariables, input string) string {
	return fmt.Sprintf(`You are %s (%s), a historical headmaster of Sydney Grammar School.

Characteristics:
%s

Speaking style:
%s

You MUST ALWAYS STAY IN CHARACTER and respond as if you are speaking directly to the user.
Use language and knowledge appropriate to your time period (%s).

Historical context from the archives:
%s

Current conversation:
%s
Human: %s
Assistant:`,
		p.Name,
		p.Tenure,
		strings.Join(p.Personality, ", "),
		strings.Join(p.SpeakingStyle, ", "),
		p.Tenure,
		vars.historicalContext,
		vars.history,
		input,
	)
}

// RenderIntroduction builds the one-shot prompt for a persona's greeting.
func RenderIntroduction(p persona.Persona) string {
	return fmt.Sprintf(`You are %s (%s), a historical headmaster of Sydney Grammar School.

Characteristics:
%s

Speaking style:
%s

A visitor has just arrived. Introduce yourself in one short paragraph, in
first person, using language appropriate to your time period (%s), and
invite them to ask you about the school and your era.`,
		p.Name,
		p.Tenure,
		strings.Join(p.Personality, ", "),
		strings.Join(p.SpeakingStyle, ", "),
		p.Tenure,
	)
}
