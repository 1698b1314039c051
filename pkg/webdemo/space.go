package webdemo

import (
	"fmt"
	"strings"

	"github.com/Anand0295/storyforge/pkg/seclog"
	"github.com/Anand0295/storyforge/pkg/security"
)

// generateCanned produces the hosted demo's templated story: an outline
// pass followed by a chapter pass, with no model behind it. The prompt
// still passes the full validation gate so the demo exercises the same
// boundary as the real engine.
func (s *Server) generateCanned(session *seclog.Session, prompt string) (string, error) {
	if err := security.CheckPrompt(prompt); err != nil {
		session.Log(fmt.Sprintf("Rejected demo prompt: %v", err), seclog.LevelError)
		return "", err
	}

	session.Log("Creating story outline...", seclog.LevelInfo)
	outline := cannedOutline()
	if err := session.SaveExchange("outline", []seclog.Exchange{
		{Role: "user", Content: "Create a detailed story outline for: " + prompt},
		{Role: "assistant", Content: outline},
	}); err != nil {
		return "", err
	}

	session.Log("Writing chapters...", seclog.LevelInfo)
	story := cannedStory(prompt)
	if err := session.SaveExchange("chapters", []seclog.Exchange{
		{Role: "user", Content: "Based on this outline: " + outline},
		{Role: "assistant", Content: story},
	}); err != nil {
		return "", err
	}

	if err := session.SaveStory(story); err != nil {
		return "", err
	}
	return story, nil
}

func cannedOutline() string {
	return strings.TrimSpace(`
Story Outline:

Chapter 1: Introduction
- Introduce main character and setting
- Establish the initial situation

Chapter 2: Rising Action
- Present the main conflict or challenge
- Character begins their journey

Chapter 3: Climax
- Major confrontation or turning point
- Character faces their greatest challenge

Chapter 4: Resolution
- Conflict is resolved
- Character growth and conclusion
`)
}

func cannedStory(prompt string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Chapter 1: The Beginning

The story begins in a world where %s. Our protagonist finds themselves facing an unexpected challenge that will change everything they thought they knew.

As the morning sun cast long shadows across the landscape, the adventure was about to begin.

Chapter 2: The Challenge

The conflict emerges as our hero discovers the true nature of their situation. With determination and courage, they must navigate through obstacles that test their resolve.

Chapter 3: The Turning Point

At the climax of their journey, everything hangs in the balance. Our protagonist must draw upon all their strength and wisdom to overcome the final challenge.

Chapter 4: The Resolution

With the conflict resolved, our hero emerges transformed by their experience. The world is different now, and so are they.

The End.
`, prompt))
}
