package intent

import (
	"fmt"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
)

const keywordPrompt = `You are Quest, a search assistant. Today's date is %s.
Turn the user's raw query into a search plan. Reply with one JSON object and nothing else:

- "keywords": 1 to 3 short search engine queries. A simple question needs one. Split a compound or research-heavy question into its parts. Add the word "news" to a keyword when the user wants recent events or announcements.
- "search_type": "place" when the user is looking for local businesses (restaurants, hotels, cafes, shops or any other business listing), otherwise "web".
- "search_image": false when pictures would not help the answer. Defaults to true. People, landmarks, products and objects usually benefit from images.
- "entity": only when the main subject is a person, place or organization, its full unambiguous encyclopedia name ("Apple Inc." for the company, not "Apple").

Previous turns of the conversation may be given as context. Use them to resolve follow-up questions such as "what about his brother".
Never ask a question back. If the query is vague, still return your best plan.`

type example struct {
	query, answer string
}

func fewShot(now time.Time) []example {
	return []example{
		{"How does photosynthesis work?", `{"keywords": ["photosynthesis process"], "search_type": "web"}`},
		{"What is pydantic in Python and what are its use cases?", `{"keywords": ["pydantic python", "python pydantic use cases"], "search_image": false, "search_type": "web"}`},
		{"Best Italian restaurants near me", `{"keywords": ["italian restaurants"], "search_type": "place"}`},
		{"Latest updates on elections", `{"keywords": ["election news"], "search_type": "web"}`},
		{"Who is the CEO of Tesla", `{"keywords": ["Tesla CEO"], "search_type": "web", "entity": "Tesla, Inc."}`},
		{"Show me pictures of the Taj Mahal at sunrise", `{"keywords": ["Taj Mahal sunrise pictures"], "entity": "Taj Mahal", "search_type": "web"}`},
		{"What announcements were made at CES?", fmt.Sprintf(`{"keywords": ["ces news %d"], "search_type": "web"}`, now.Year())},
	}
}

// intentMessages renders the system prompt, the examples and the user turn.
func intentMessages(now time.Time, history []string, query string) []completion.Message {
	msgs := []completion.Message{completion.System(fmt.Sprintf(keywordPrompt, now.Format("2006-01-02")))}
	for _, ex := range fewShot(now) {
		msgs = append(msgs,
			completion.User(userQuery("", ex.query)),
			completion.Assistant(ex.answer),
		)
	}

	ctxBlock := ""
	if len(history) > 0 {
		ctxBlock = "Context from previous searches:\n"
		for _, h := range history {
			ctxBlock += h + "\n"
		}
	}
	return append(msgs, completion.User(userQuery(ctxBlock, query)))
}

func userQuery(prefix, query string) string {
	return fmt.Sprintf("%sUser Query: \"%s\"", prefix, query)
}

const headlinePrompt = `You are a neutral news editor. Rewrite the headline of the article you are given so that it is concise, informative and free of opinion or sensational wording. Do not rewrite the body.

Reply with one JSON object of the form {"headline": "<new headline>"} and nothing else.`

func headlineMessages(title, body string) []completion.Message {
	return []completion.Message{
		completion.System(headlinePrompt),
		completion.User(fmt.Sprintf("Headline: %s\n%s", title, body)),
	}
}
