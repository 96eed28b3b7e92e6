package suggest

// NewEngine creates a suggestion engine with the curated tables.
func NewEngine() *Engine {
	return &Engine{
		trending: []Item{
			{ID: "trending-0", Text: "golang generics", Kind: KindTrending, Count: 1284},
			{ID: "trending-1", Text: "rust vs go performance", Kind: KindTrending, Count: 976},
			{ID: "trending-2", Text: "kubernetes operators", Kind: KindTrending, Count: 743},
			{ID: "trending-3", Text: "llm fine tuning", Kind: KindTrending, Count: 612},
			{ID: "trending-4", Text: "webassembly runtime", Kind: KindTrending, Count: 451},
		},
		smart: []smartRule{
			{
				keywords:  []string{"learning", "learn", "study", "学习"},
				templates: []string{"%s tutorial", "%s resource guide"},
			},
			{
				keywords:  []string{"error", "bug", "panic", "crash"},
				templates: []string{"how to fix %s", "%s troubleshooting"},
			},
			{
				keywords:  []string{"install", "setup", "configure"},
				templates: []string{"%s step by step", "%s requirements"},
			},
			{
				keywords:  []string{"best", "top", "compare", "vs"},
				templates: []string{"%s 2026", "%s community picks"},
			},
			{
				keywords:  []string{"recipe", "cook", "food"},
				templates: []string{"%s ingredients", "%s quick version"},
			},
		},
		related: []relatedRule{
			{
				keywords: []string{"golang", "go "},
				terms:    []string{"go concurrency patterns", "go modules", "go testing", "go performance tuning"},
			},
			{
				keywords: []string{"python"},
				terms:    []string{"python asyncio", "python type hints", "python packaging"},
			},
			{
				keywords: []string{"machine", "neural", "ai"},
				terms:    []string{"deep learning basics", "transformer architecture", "model evaluation metrics"},
			},
			{
				keywords: []string{"docker", "container"},
				terms:    []string{"docker compose", "container networking", "multi-stage builds"},
			},
			{
				keywords: []string{"database", "sql"},
				terms:    []string{"database indexing", "sql query optimization", "sqlite vs postgres"},
			},
		},
		fallback: []string{"%s — what is it", "how to %s"},
	}
}
