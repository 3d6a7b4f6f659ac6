package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/cloo-solutions/docgpt/internal/storage"
	"github.com/cloo-solutions/docgpt/internal/telemetry"
)

// Extractor converts upload bytes to text.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

// EmbedderFactory returns the embedder to use with a chat model. Profiles
// that embed with a fixed model ignore the argument.
type EmbedderFactory func(model domain.ModelOption) Embedder

// PipelineDeps lists the collaborators a Pipeline needs.
type PipelineDeps struct {
	Loader         *Loader
	Extractor      Extractor
	Splitter       Splitter
	Embedders      EmbedderFactory
	CacheStore     ByteStore
	EmbeddingsDir  string
	Indexes        IndexBuilder
	Chat           *ChatClient
	TopK           int
	EmbedBatchSize int
}

// IngestResult describes an indexed document.
type IngestResult struct {
	Document *domain.Document
	Chunks   []domain.Chunk
	Cache    CacheStats
	Reused   bool
}

// Pipeline runs ingestion and question answering for sessions.
type Pipeline struct {
	loader        *Loader
	extractor     Extractor
	splitter      Splitter
	embedders     EmbedderFactory
	cacheStore    ByteStore
	embeddingsDir string
	indexes       IndexBuilder
	chat          *ChatClient
	topK          int
	batchSize     int
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	topK := deps.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	indexes := deps.Indexes
	if indexes == nil {
		indexes = MemoryIndexBuilder{}
	}
	return &Pipeline{
		loader:        deps.Loader,
		extractor:     deps.Extractor,
		splitter:      deps.Splitter,
		embedders:     deps.Embedders,
		cacheStore:    deps.CacheStore,
		embeddingsDir: deps.EmbeddingsDir,
		indexes:       indexes,
		chat:          deps.Chat,
		topK:          topK,
		batchSize:     deps.EmbedBatchSize,
	}
}

// Ingest saves the upload, splits it, embeds the chunks through the cache,
// indexes them and attaches the document to session. Re-uploading a
// document already indexed in this session skips the embedding work.
func (p *Pipeline) Ingest(ctx context.Context, session *Session, name string, data []byte) (*IngestResult, error) {
	model := session.Model()
	ctx, span := telemetry.StartSpan(ctx, "pipeline.ingest", telemetry.SpanAttributes{
		SessionID: session.ID(),
		Document:  name,
		Model:     model.ID,
		Operation: "ingest",
	})
	defer span.End()

	result, err := p.ingest(ctx, session, model, name, data)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) ingest(ctx context.Context, session *Session, model domain.ModelOption, name string, data []byte) (*IngestResult, error) {
	doc, err := p.loader.Save(ctx, name, data)
	if err != nil {
		return nil, err
	}

	if retriever, ok := session.IndexedRetriever(doc); ok {
		if err := session.AttachDocument(doc, retriever); err != nil {
			return nil, err
		}
		log.Printf("pipeline: reusing index for %s (session %s)", doc.Name, session.ID())
		return &IngestResult{Document: doc, Reused: true}, nil
	}

	text, err := p.extractor.Extract(doc.Name, doc.Content)
	if err != nil {
		return nil, domain.Wrap(domain.ErrExtract, err)
	}
	doc.Text = text

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	telemetry.AddBreadcrumb(ctx, "pipeline", fmt.Sprintf("split %s into %d chunks", doc.Name, len(chunks)))

	cached := NewCachedEmbedder(p.embedders(model), p.cacheStore, storage.Key(p.embeddingsDir, doc.Name)).
		WithBatchSize(p.batchSize)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := cached.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.VectorIndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.VectorIndexEntry{Chunk: c, Embedding: vectors[i]}
	}

	// Uploads are overwritten by name, so the index is keyed by content too.
	retriever, err := p.indexes.Build(ctx, IndexNamespace(p.embeddingsDir, doc), entries, cached)
	if err != nil {
		return nil, err
	}
	if err := session.AttachDocument(doc, retriever); err != nil {
		return nil, err
	}

	stats := cached.Stats()
	log.Printf("pipeline: indexed %s: %d chunks (cache hits=%d misses=%d)", doc.Name, len(chunks), stats.Hits, stats.Misses)
	return &IngestResult{Document: doc, Chunks: chunks, Cache: stats}, nil
}

// IndexNamespace returns the vector index namespace for doc.
func IndexNamespace(embeddingsDir string, doc *domain.Document) string {
	return storage.Key(embeddingsDir, doc.Name, doc.SHA256)
}

// Ask answers question for session, streaming tokens into sink. The human
// message is logged before retrieval starts; the ai message is logged only
// when the stream completes.
func (p *Pipeline) Ask(ctx context.Context, session *Session, question string, sink Sink) (string, error) {
	turn, err := session.BeginTurn(question)
	if err != nil {
		return "", err
	}

	docName := ""
	if turn.Document != nil {
		docName = turn.Document.Name
	}
	ctx, span := telemetry.StartSpan(ctx, "pipeline.ask", telemetry.SpanAttributes{
		SessionID: session.ID(),
		Document:  docName,
		Model:     turn.Model.ID,
		Operation: "ask",
	})
	defer span.End()

	committed := false
	wrapped := SinkFuncs{
		Start: sink.OnStart,
		Token: sink.OnToken,
		End: func(full string) {
			// Log the answer before the sink reports completion.
			committed = session.EndTurn(turn.ID, full, true) == nil
			sink.OnEnd(full)
		},
	}

	answer, err := p.answer(ctx, turn, wrapped)
	if !committed {
		endErr := session.EndTurn(turn.ID, answer, false)
		if endErr != nil && !errors.Is(endErr, domain.ErrNotStreaming) && !errors.Is(endErr, domain.ErrStaleTurn) {
			return answer, endErr
		}
	}
	if err != nil {
		span.SetError(err)
		return answer, err
	}
	return answer, nil
}

func (p *Pipeline) answer(ctx context.Context, turn Turn, sink Sink) (string, error) {
	chunks, err := turn.Retriever.Retrieve(ctx, turn.Question, p.topK)
	if err != nil {
		return "", err
	}

	prompt := BuildPrompt(FormatDocs(chunks), turn.Question)
	return p.chat.Stream(ctx, prompt, turn.Model.ID, sink)
}

// Remove detaches the session's document and clears its log. Files and
// cached embeddings stay on disk.
func (p *Pipeline) Remove(session *Session) {
	session.RemoveDocument()
}

// TopK returns the number of chunks retrieved per question.
func (p *Pipeline) TopK() int {
	return p.topK
}

// DescribeChunks renders a short preview of chunks for logs and the CLI.
func DescribeChunks(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		preview := []rune(c.Text)
		if len(preview) > 60 {
			preview = append(preview[:60], '…')
		}
		fmt.Fprintf(&b, "#%d [%d:%d] %q\n", c.Index, c.Start, c.End, string(preview))
	}
	return b.String()
}
