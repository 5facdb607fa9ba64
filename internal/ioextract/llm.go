package ioextract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gnames/taxfinder/pkg/chunk"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/llm"
	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/gnames/taxfinder/pkg/taxon"
)

// llmConfidence is assigned to every LLM-extracted candidate.
const llmConfidence = 0.6

// LlmExtractor asks a language model to find taxon mentions in text
// chunks. A chunk whose replies never parse is skipped, not fatal.
type LlmExtractor struct {
	cfg          config.LlmConfig
	client       llm.Client
	morph        norm.MorphAnalyzer
	systemPrompt string
}

// NewLlm creates an LlmExtractor. The system prompt must already have
// its locale placeholder substituted.
func NewLlm(
	cfg config.LlmConfig,
	client llm.Client,
	morph norm.MorphAnalyzer,
	systemPrompt string,
) *LlmExtractor {
	return &LlmExtractor{
		cfg:          cfg,
		client:       client,
		morph:        morph,
		systemPrompt: systemPrompt,
	}
}

// Chunks returns the pieces of text the extractor would send, one LLM
// call each.
func (l *LlmExtractor) Chunks(text string) ([]string, error) {
	return chunk.Split(
		text,
		chunk.Strategy(l.cfg.ChunkStrategy),
		l.cfg.MinChunkWords,
		l.cfg.MaxChunkWords,
		sentenceSplitter,
	)
}

// Extract runs the model over every chunk. The onChunk callback, when
// not nil, reports progress after each chunk completes.
func (l *LlmExtractor) Extract(
	ctx context.Context,
	text string,
	onChunk func(done, total int),
) ([]taxon.Candidate, error) {
	chunks, err := l.Chunks(text)
	if err != nil {
		return nil, err
	}

	var res []taxon.Candidate
	for i, piece := range chunks {
		reply := l.callLlm(ctx, piece)
		for _, item := range reply.Candidates {
			name := strings.TrimSpace(item.Name)
			if name == "" {
				continue
			}
			res = append(res, l.candidate(text, name, item.Context))
		}
		if onChunk != nil {
			onChunk(i+1, len(chunks))
		}
		if err = ctx.Err(); err != nil {
			return res, err
		}
	}
	return res, nil
}

type llmReply struct {
	Candidates []llmCandidate `json:"candidates"`
}

type llmCandidate struct {
	Name    string `json:"name"`
	Context string `json:"context"`
}

// callLlm retries a chunk max_retries times and gives up with an empty
// reply so one bad chunk does not abort the whole run.
func (l *LlmExtractor) callLlm(ctx context.Context, piece string) llmReply {
	var lastErr error
	for attempt := range llm.Attempts(l.cfg.MaxRetries) {
		raw, err := l.client.Complete(
			ctx, l.systemPrompt, piece, llm.ExtractorSchema(),
		)
		if err == nil {
			var reply llmReply
			if err = llm.ParseJSON(raw, &reply); err == nil {
				return reply
			}
		}
		lastErr = err
		slog.Warn(
			"LLM extractor reply not usable",
			"attempt", attempt+1, "error", err,
		)
	}
	slog.Warn("LLM extractor chunk skipped", "error", lastErr)
	return llmReply{}
}

func (l *LlmExtractor) candidate(
	text, name, context string,
) taxon.Candidate {
	start, end := findSpan(text, name)
	context = strings.TrimSpace(context)
	if context == "" {
		context = norm.LineContext(text, start)
	}
	return taxon.Candidate{
		SourceText:    name,
		SourceContext: context,
		LineNumber:    norm.LineNumber(text, start),
		StartChar:     start,
		EndChar:       end,
		Normalized:    norm.Normalize(name),
		Lemmatized:    norm.Lemmatize(name, l.morph),
		Method:        taxon.MethodLlm,
		Confidence:    llmConfidence,
	}
}

// findSpan locates the name in the text, case-sensitively first. An
// unlocatable name gets a zero-based span of its own length.
func findSpan(text, name string) (int, int) {
	idx := strings.Index(text, name)
	if idx == -1 {
		idx = strings.Index(strings.ToLower(text), strings.ToLower(name))
	}
	if idx == -1 {
		return 0, len(name)
	}
	return idx, idx + len(name)
}

func sentenceSplitter(text string) []string {
	spans := norm.Sentences(text)
	res := make([]string, len(spans))
	for i, s := range spans {
		res[i] = s.Text
	}
	return res
}
