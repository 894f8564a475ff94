package agent

import (
	"github.com/fathom-run/fathom/model"
)

// ChatSystemPrompt is the default persona for conversational agents.
const ChatSystemPrompt = `You are a helpful chatbot :)
You have access to web search tools. Use them to find accurate, up-to-date information if you want to.
When you find relevant information, cite your sources.
Have fun :)`

// ResearchSystemPrompt is the default persona for research agents.
const ResearchSystemPrompt = `You are a helpful research assistant.
You have access to web search tools. Use them to find accurate, up-to-date information.
When you find relevant information, cite your sources.
Be thorough but concise in your research.
Simple questions should beget simple results.`

const (
	chatMaxIterations     = 6
	researchMaxIterations = 10
)

// NewChatAgent creates a conversational agent with the chat persona and a
// budget of 6 model calls per turn. Options may override both.
func NewChatAgent(llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	base := []func(o *Options){
		WithSystemPrompt(ChatSystemPrompt),
		WithMaxIterations(chatMaxIterations),
	}
	return New("chat", llm, append(base, optFns...)...)
}

// NewResearchAgent creates a research agent with the research persona and a
// budget of 10 model calls per turn. Options may override both.
func NewResearchAgent(llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	base := []func(o *Options){
		WithSystemPrompt(ResearchSystemPrompt),
		WithMaxIterations(researchMaxIterations),
	}
	return New("research", llm, append(base, optFns...)...)
}
