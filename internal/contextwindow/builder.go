// Package contextwindow reshapes raw message history into the
// role-constrained window a chat completion API accepts. It works on
// transient Turn views copied from persisted messages, so the role
// relabeling below never leaks back into the store.
package contextwindow

import (
	"aichorus/internal/ai"
	"aichorus/internal/model"
)

// Turn is the transient view of one message: its conversational role, its
// content, and the business role of the authoring persona (empty for human
// input or a deleted persona).
type Turn struct {
	Role       string
	Content    string
	AuthorRole model.BusinessRole
}

// Build produces the completion payload, oldest first.
//
// recent is newest-first. fallbackUser is the most recent user message from
// the session's deeper history, loaded only when the window itself has none;
// fallbackCreator likewise for the most recent content-creator message. The
// output always contains at least one "user" entry when any input exists,
// and never three consecutive "assistant" entries.
func Build(recent []Turn, fallbackUser, fallbackCreator *Turn, responderRole model.BusinessRole) []ai.ChatMessage {
	turns := make([]Turn, len(recent))
	copy(turns, recent)

	// A responding creator gets the fallback user message as the earliest
	// turn in context; anyone else gets it appended only when the window
	// carries no user turn at all.
	if responderRole == model.RoleContentCreator {
		if fallbackUser != nil {
			turns = append([]Turn{*fallbackUser}, turns...)
		}
	} else if fallbackUser != nil && !hasRole(turns, model.RoleUser) {
		turns = append(turns, *fallbackUser)
	}

	// Creator injection: surface the last creator contribution, relabeled
	// as user input, unless a user turn already heads the window.
	if fallbackCreator != nil && !hasAuthorRole(turns, model.RoleContentCreator) {
		if len(turns) == 0 || turns[0].Role != model.RoleUser {
			injected := *fallbackCreator
			injected.Role = model.RoleUser
			turns = append([]Turn{injected}, turns...)
		}
	}

	// Completion APIs reject windows without a user turn; relabel the
	// oldest element if none survived.
	if len(turns) > 0 && !hasRole(turns, model.RoleUser) {
		turns[len(turns)-1].Role = model.RoleUser
	}

	// Split runs of three consecutive AI turns by relabeling the middle
	// one, resuming right after it so longer runs are split as well.
	for i := 0; i+2 < len(turns); {
		if turns[i].Role == model.RoleAI && turns[i+1].Role == model.RoleAI && turns[i+2].Role == model.RoleAI {
			turns[i+1].Role = model.RoleUser
			i += 2
			continue
		}
		i++
	}

	out := make([]ai.ChatMessage, 0, len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		role := "assistant"
		if turns[i].Role == model.RoleUser {
			role = "user"
		}
		out = append(out, ai.ChatMessage{Role: role, Content: turns[i].Content})
	}
	return out
}

func hasRole(turns []Turn, role string) bool {
	for _, t := range turns {
		if t.Role == role {
			return true
		}
	}
	return false
}

func hasAuthorRole(turns []Turn, role model.BusinessRole) bool {
	for _, t := range turns {
		if t.AuthorRole == role {
			return true
		}
	}
	return false
}
