package retrieval

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"camara_chat/pkg/ai"
	"camara_chat/pkg/config"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var indexedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
}

// IndexStats summarises one indexing run.
type IndexStats struct {
	Files  int
	Chunks int
}

// Indexer splits source files into overlapping chunks, embeds them and stores them.
type Indexer struct {
	store     *Store
	embedder  ai.Embedder
	chunkSize int
	overlap   int
	batchSize int
}

// NewIndexer validates the chunking settings and builds an indexer.
func NewIndexer(store *Store, embedder ai.Embedder, cfg config.RetrievalConfig) (*Indexer, error) {
	if store == nil || embedder == nil {
		return nil, fmt.Errorf("indexer requires a store and an embedder")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk_overlap must be in [0, %d), got %d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = config.Default().Retrieval.BatchSize
	}
	return &Indexer{
		store:     store,
		embedder:  embedder,
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.ChunkOverlap,
		batchSize: batch,
	}, nil
}

// IndexDir indexes every supported file below dir.
func (ix *Indexer) IndexDir(ctx context.Context, dir string) (IndexStats, error) {
	var stats IndexStats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !indexedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		source, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		n, err := ix.indexFile(ctx, path, filepath.ToSlash(source))
		if err != nil {
			return err
		}
		stats.Files++
		stats.Chunks += n
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to index %s: %w", dir, err)
	}
	slog.Info("index_complete", "dir", dir, "files", stats.Files, "chunks", stats.Chunks)
	return stats, nil
}

// IndexFile replaces the stored chunks of path and returns how many were written.
// Chunks are stored under the file's base name.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	return ix.indexFile(ctx, path, filepath.Base(path))
}

// indexFile stores the chunks of path under source, the name that later
// reaches the prompt.
func (ix *Indexer) indexFile(ctx context.Context, path, source string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		text, err = ExtractText(string(data))
	case ".pdf":
		text, err = ExtractPDF(bytes.NewReader(data), int64(len(data)))
	default:
		text = string(data)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	pieces := Split(text, ix.chunkSize, ix.overlap)
	chunks := make([]Chunk, 0, len(pieces))
	for start := 0; start < len(pieces); start += ix.batchSize {
		end := min(start+ix.batchSize, len(pieces))
		vectors, err := ix.embedder.Embed(ctx, pieces[start:end])
		if err != nil {
			return 0, fmt.Errorf("failed to embed %s: %w", source, err)
		}
		if len(vectors) != end-start {
			return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), end-start)
		}
		for i, v := range vectors {
			chunks = append(chunks, Chunk{
				Source:    source,
				Index:     start + i,
				Text:      pieces[start+i],
				Embedding: v,
			})
		}
		slog.Debug("index_batch", "source", source, "from", start, "to", end)
	}

	if err := ix.store.Replace(ctx, source, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Split cuts text into chunks of at most size runes, each starting
// size-overlap runes after the previous one. Blank chunks are dropped.
func Split(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 || size <= 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ExtractText returns the visible text of an HTML document, one block per line.
func ExtractText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) && sb.Len() > 0 {
			sb.WriteString("\n")
		}
	}
	walk(root)

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Br, atom.Tr, atom.Section, atom.Article,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}
