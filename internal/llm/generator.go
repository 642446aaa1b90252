package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// MaxTags caps the number of tags returned per paper.
const MaxTags = 5

// maxProposalPapers caps how many papers are included in a proposal prompt.
const maxProposalPapers = 10

// ProposalDraft is the model's suggested research proposal before persistence.
type ProposalDraft struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	OpenProblems []string `json:"open_problems"`
}

const tagSystemPrompt = `You are a research librarian who assigns topical tags to academic papers.
Respond with a JSON object of the form {"tags": ["tag1", "tag2", ...]} containing between 3 and 5 short lowercase tags.
Tags should name research areas, methods, or applications. Do not include any other text.`

const proposalSystemPrompt = `You are a research advisor who drafts research proposals from a reading list.
Respond with a JSON object of the form {"title": "...", "description": "...", "open_problems": ["...", "..."]}.
The title should be concise, the description two to four sentences, and open_problems a list of 2 to 5 concrete unresolved questions suggested by the papers. Do not include any other text.`

type tagResponse struct {
	Tags []string `json:"tags"`
}

// GenerateTags asks the completer for topical tags describing a paper.
// The result is capped at MaxTags; blank tags are dropped.
func GenerateTags(ctx context.Context, completer Completer, title, abstract string) ([]string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.NewValidationError("title", "is required")
	}

	var prompt strings.Builder
	prompt.WriteString("Title: ")
	prompt.WriteString(title)
	if abstract = strings.TrimSpace(abstract); abstract != "" {
		prompt.WriteString("\n\nAbstract: ")
		prompt.WriteString(abstract)
	}

	content, err := completer.Complete(ctx, tagSystemPrompt, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("generate tags: %w", err)
	}

	var parsed tagResponse
	if err := json.Unmarshal(extractJSON(content), &parsed); err != nil {
		return nil, fmt.Errorf("generate tags: parse response: %w", err)
	}

	tags := make([]string, 0, len(parsed.Tags))
	for _, tag := range parsed.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("generate tags: response contained no tags")
	}
	return tags, nil
}

// GenerateProposal asks the completer to draft a research proposal grounded
// in the given papers.
func GenerateProposal(ctx context.Context, completer Completer, papers []*domain.Paper) (*ProposalDraft, error) {
	if len(papers) == 0 {
		return nil, domain.NewValidationError("papers", "at least one paper is required")
	}
	if len(papers) > maxProposalPapers {
		papers = papers[:maxProposalPapers]
	}

	var prompt strings.Builder
	prompt.WriteString("Draft a research proposal based on these papers:\n")
	for i, p := range papers {
		fmt.Fprintf(&prompt, "\n%d. %s", i+1, p.Title)
		if len(p.Authors) > 0 {
			fmt.Fprintf(&prompt, " (%s)", strings.Join(p.Authors, ", "))
		}
		if abstract := strings.TrimSpace(p.Abstract); abstract != "" {
			prompt.WriteString("\n   ")
			prompt.WriteString(abstract)
		}
		prompt.WriteString("\n")
	}

	content, err := completer.Complete(ctx, proposalSystemPrompt, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("generate proposal: %w", err)
	}

	var draft ProposalDraft
	if err := json.Unmarshal(extractJSON(content), &draft); err != nil {
		return nil, fmt.Errorf("generate proposal: parse response: %w", err)
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, fmt.Errorf("generate proposal: response missing title")
	}
	return &draft, nil
}

// extractJSON strips markdown code fences some models wrap around JSON
// output even when asked not to.
func extractJSON(content string) []byte {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}
	return []byte(content)
}
